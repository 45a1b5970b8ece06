package intrinsics

import (
	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// IteratorPayload is an iterator's mutable cursor state, heap-allocated
// like any other container so it participates in RC/handle resolution
// the same way (spec §4.5 treats iterators as ordinary heap objects, not
// a special case).
type IteratorPayload struct {
	elems []objmodel.Value
	pos   int
}

func init() {
	registerListOps()
	registerSetOps()
	registerIterOps()
	registerContextOps()
}

func registerListOps() {
	Register(&Spec{Name: "list.append", NumArgs: 2, Effect: WritesState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		l, err := asList(ctx, args[0])
		if err != nil {
			return 0, err
		}
		l.Elems = append(l.Elems, args[1])
		return objmodel.Null, nil
	}})

	// seq.rest(xs, start) returns a fresh list holding every element of
	// xs from index start onward, used by the destructuring-assignment
	// desugaring for `a, *rest = xs` patterns (start is the starred
	// target's position).
	Register(&Spec{Name: "seq.rest", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		var elems []objmodel.Value
		switch {
		case args[0].IsHeapRef():
			obj := ctx.Heap.Table().Get(args[0].HeapIndex())
			if obj == nil {
				return 0, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
			}
			switch p := obj.Payload.(type) {
			case *ListPayload:
				elems = p.Elems
			case *TuplePayload:
				elems = p.Elems
			default:
				return 0, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "seq.rest requires a List or Tuple")
			}
		default:
			return 0, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "seq.rest requires a List or Tuple")
		}
		if !args[1].IsSmallInt() || args[1].SmallInt() < 0 || args[1].SmallInt() > int64(len(elems)) {
			return 0, molterr.New(molterr.KindIndex, molterr.RTIndexError, "seq.rest start index out of range")
		}
		start := args[1].SmallInt()
		rest := make([]objmodel.Value, int64(len(elems))-start)
		copy(rest, elems[start:])
		return newList(ctx, rest), nil
	}})
}

func registerSetOps() {
	Register(&Spec{Name: "set.add", NumArgs: 2, Effect: WritesState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		s, err := asSet(ctx, args[0])
		if err != nil {
			return 0, err
		}
		s.Members[args[1]] = struct{}{}
		return objmodel.Null, nil
	}})
}

// registerIterOps implements iteration over List/Tuple/Set/Mapping.
// iter.acquire, the explicit "iterator acquisition" step
// (tir.IterAcquire), allocates an IteratorPayload once, up front, that
// snapshots the container's elements, so the container stays usable as
// a container while iteration runs: index order for List/Tuple, key
// insertion order for Mapping, and Go map iteration order (not defined)
// for Set. iter.next only ever advances that payload.
func registerIterOps() {
	Register(&Spec{Name: "iter.acquire", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		elems, err := iterableElems(ctx, args[0])
		if err != nil {
			return 0, err
		}
		idx := ctx.Heap.Alloc(heap.KindIterator, &IteratorPayload{elems: elems}, approxSize(len(elems)))
		return objmodel.FromHeapRef(idx), nil
	}})

	// iter.next returns a 2-tuple (has, value): has is false once the
	// cursor is exhausted, and value is then Null.
	Register(&Spec{Name: "iter.next", NumArgs: 1, Effect: ReadsState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		p, err := payload(ctx, args[0], heap.KindIterator)
		if err != nil {
			return 0, err
		}
		it := p.(*IteratorPayload)
		if it.pos >= len(it.elems) {
			return newTuple(ctx, []objmodel.Value{objmodel.False, objmodel.Null}), nil
		}
		v := it.elems[it.pos]
		it.pos++
		return newTuple(ctx, []objmodel.Value{objmodel.True, v}), nil
	}})
}

func iterableElems(ctx *Context, v objmodel.Value) ([]objmodel.Value, *molterr.Error) {
	if !v.IsHeapRef() {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "value of type %s is not iterable", v.TypeName())
	}
	obj := ctx.Heap.Table().Get(v.HeapIndex())
	if obj == nil {
		return nil, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
	}
	switch p := obj.Payload.(type) {
	case *ListPayload:
		out := make([]objmodel.Value, len(p.Elems))
		copy(out, p.Elems)
		return out, nil
	case *TuplePayload:
		out := make([]objmodel.Value, len(p.Elems))
		copy(out, p.Elems)
		return out, nil
	case *SetPayload:
		out := make([]objmodel.Value, 0, len(p.Members))
		for v := range p.Members {
			out = append(out, v)
		}
		return out, nil
	case *MappingPayload:
		out := make([]objmodel.Value, len(p.Order))
		copy(out, p.Order)
		return out, nil
	default:
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "value is not iterable")
	}
}

// ContextManager is the Go-level protocol a `with` block's managed
// value satisfies: Enter runs on block entry, Exit on block exit
// (normal or exceptional), mirroring the teacher's io.Closer-adjacent
// resource-cleanup convention generalized to a two-method enter/exit
// pair per spec §4.1's `with` desugaring.
type ContextManager interface {
	Enter(ctx *Context) (objmodel.Value, *molterr.Error)
	Exit(ctx *Context, raised objmodel.Value) *molterr.Error
}

func registerContextOps() {
	Register(&Spec{Name: "context.enter", NumArgs: 1, Effect: MaySuspend, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		cm, err := contextManagerOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		return cm.Enter(ctx)
	}})
	Register(&Spec{Name: "context.exit", NumArgs: 2, Effect: MaySuspend, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		cm, err := contextManagerOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		if err := cm.Exit(ctx, args[1]); err != nil {
			return 0, err
		}
		return objmodel.Null, nil
	}})
}

func contextManagerOf(ctx *Context, v objmodel.Value) (ContextManager, *molterr.Error) {
	if !v.IsHeapRef() {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "value of type %s does not support the context manager protocol", v.TypeName())
	}
	obj := ctx.Heap.Table().Get(v.HeapIndex())
	if obj == nil {
		return nil, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
	}
	cm, ok := obj.Payload.(ContextManager)
	if !ok {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "value does not support the context manager protocol")
	}
	return cm, nil
}
