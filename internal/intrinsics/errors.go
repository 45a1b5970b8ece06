package intrinsics

import (
	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// ErrorPayload wraps a *molterr.Error as a heap object so it can be
// raised, caught, and inspected (.kind, .message) like any other value
// (spec §4.1 Raise/Handler operate on a Value, not a Go error directly).
type ErrorPayload struct {
	Err *molterr.Error
}

func init() {
	registerErrorOps()
}

func registerErrorOps() {
	// error.new builds a raiseable error value from a kind name and
	// message; the structured traceback (spec §4.8 "error construction
	// with structured traceback entries") is attached separately by the
	// frame that raises it, since only the raising frame knows its own
	// FrameDescriptor.
	Register(&Spec{Name: "error.new", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		kindName, err := asStr(ctx, args[0])
		if err != nil {
			return 0, err
		}
		message, err := asStr(ctx, args[1])
		if err != nil {
			return 0, err
		}
		e := molterr.New(molterr.Kind(kindName), "RT007", "%s", message)
		idx := ctx.Heap.Alloc(heap.KindClass, &ErrorPayload{Err: e}, 48)
		return objmodel.FromHeapRef(idx), nil
	}})

	Register(&Spec{Name: "error.kind", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		ep, err := errorOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		return newStr(ctx, string(ep.Err.Kind)), nil
	}})

	Register(&Spec{Name: "error.message", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		ep, err := errorOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		return newStr(ctx, ep.Err.Message), nil
	}})
}

func errorOf(ctx *Context, v objmodel.Value) (*ErrorPayload, *molterr.Error) {
	if !v.IsHeapRef() {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "expected an error value, got %s", v.TypeName())
	}
	obj := ctx.Heap.Table().Get(v.HeapIndex())
	if obj == nil {
		return nil, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
	}
	ep, ok := obj.Payload.(*ErrorPayload)
	if !ok {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "expected an error value")
	}
	return ep, nil
}
