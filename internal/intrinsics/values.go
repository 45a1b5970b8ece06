package intrinsics

import (
	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// ListPayload, TuplePayload, SetPayload, and MappingPayload are the
// concrete Go representations behind a heap.Object's opaque Payload
// field for the corresponding heap.Kind — object.go documents that each
// Kind's representation "lives in the package that constructs it"; this
// package is the one that does, since every list/set/mapping/tuple
// constructor intrinsic lives here.
//
// objmodel.Value is itself a plain uint64 (NaN-boxed, but still a
// comparable scalar, never a raw Go pointer) so it can be used directly
// as a Go map key for Set/Mapping without a separate hashing step. Two
// distinct float bit patterns that IEEE-754 would treat as equal (e.g.
// +0.0 and -0.0) are treated as distinct map keys here; user-level
// equality intrinsics (value.eq) do not rely on map identity.
type ListPayload struct{ Elems []objmodel.Value }

type TuplePayload struct{ Elems []objmodel.Value }

type SetPayload struct{ Members map[objmodel.Value]struct{} }

type MappingPayload struct {
	// Order preserves insertion order for deterministic iteration (spec
	// §8 "two successive passes ... reclaim the same set" style
	// determinism requirements extend to iteration order too).
	Order []objmodel.Value
	Items map[objmodel.Value]objmodel.Value
}

// Children implements heap.Container so the trial-deletion cycle
// collector (internal/heap/gc.go) can traverse real runtime graphs —
// spec §8 scenario 5 ("a = []; a.append(a)") depends on a list's
// self-reference being visible here.
func (p *ListPayload) Children() []uint32 { return heapRefsOf(p.Elems) }

func (p *TuplePayload) Children() []uint32 { return heapRefsOf(p.Elems) }

func (p *SetPayload) Children() []uint32 {
	children := make([]uint32, 0, len(p.Members))
	for m := range p.Members {
		if m.IsHeapRef() {
			children = append(children, m.HeapIndex())
		}
	}
	return children
}

func (p *MappingPayload) Children() []uint32 {
	children := make([]uint32, 0, 2*len(p.Order))
	for _, k := range p.Order {
		if k.IsHeapRef() {
			children = append(children, k.HeapIndex())
		}
		if v, ok := p.Items[k]; ok && v.IsHeapRef() {
			children = append(children, v.HeapIndex())
		}
	}
	return children
}

// heapRefsOf filters vs down to the heap-table indices of its
// heap-referencing elements, the shape every composite Container needs
// for Children().
func heapRefsOf(vs []objmodel.Value) []uint32 {
	children := make([]uint32, 0, len(vs))
	for _, v := range vs {
		if v.IsHeapRef() {
			children = append(children, v.HeapIndex())
		}
	}
	return children
}

func newList(ctx *Context, elems []objmodel.Value) objmodel.Value {
	idx := ctx.Heap.Alloc(heap.KindList, &ListPayload{Elems: elems}, approxSize(len(elems)))
	return objmodel.FromHeapRef(idx)
}

func newTuple(ctx *Context, elems []objmodel.Value) objmodel.Value {
	idx := ctx.Heap.Alloc(heap.KindTuple, &TuplePayload{Elems: elems}, approxSize(len(elems)))
	return objmodel.FromHeapRef(idx)
}

func newSet(ctx *Context, elems []objmodel.Value) objmodel.Value {
	members := make(map[objmodel.Value]struct{}, len(elems))
	for _, e := range elems {
		members[e] = struct{}{}
	}
	idx := ctx.Heap.Alloc(heap.KindSet, &SetPayload{Members: members}, approxSize(len(elems)))
	return objmodel.FromHeapRef(idx)
}

func newMapping(ctx *Context, keys, values []objmodel.Value) objmodel.Value {
	m := &MappingPayload{Items: make(map[objmodel.Value]objmodel.Value, len(keys))}
	for i, k := range keys {
		if _, dup := m.Items[k]; !dup {
			m.Order = append(m.Order, k)
		}
		m.Items[k] = values[i]
	}
	idx := ctx.Heap.Alloc(heap.KindMapping, m, approxSize(len(keys)))
	return objmodel.FromHeapRef(idx)
}

func approxSize(n int) uint64 { return uint64(16 + 8*n) }

func asList(ctx *Context, v objmodel.Value) (*ListPayload, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindList)
	if err != nil {
		return nil, err
	}
	return p.(*ListPayload), nil
}

func asTuple(ctx *Context, v objmodel.Value) (*TuplePayload, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindTuple)
	if err != nil {
		return nil, err
	}
	return p.(*TuplePayload), nil
}

func asSet(ctx *Context, v objmodel.Value) (*SetPayload, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindSet)
	if err != nil {
		return nil, err
	}
	return p.(*SetPayload), nil
}

func asMapping(ctx *Context, v objmodel.Value) (*MappingPayload, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindMapping)
	if err != nil {
		return nil, err
	}
	return p.(*MappingPayload), nil
}

func payload(ctx *Context, v objmodel.Value, want heap.Kind) (interface{}, *molterr.Error) {
	if !v.IsHeapRef() {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "expected a heap container, got %s", v.TypeName())
	}
	obj := ctx.Heap.Table().Get(v.HeapIndex())
	if obj == nil {
		return nil, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
	}
	if obj.Kind() != want {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "expected kind %d, got kind %d", want, obj.Kind())
	}
	return obj.Payload, nil
}
