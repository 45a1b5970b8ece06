package intrinsics

import (
	"math"

	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// Grounded on the teacher's internal/builtins/registry.go arithmetic/
// comparison registration shape (per-op-per-type Registry entries such
// as "add_Int"/"add_Float"), collapsed here to a single dynamically
// dispatched intrinsic per operator since Molt's values already carry
// their own runtime tag (spec §3) rather than needing a type-specialized
// name per operand type.

func init() {
	registerArithmetic()
	registerComparison()
	registerBool()
	registerBits()
}

func numOperands(args []objmodel.Value) (aFloat, bFloat float64, bothInt bool, a, b int64, err *molterr.Error) {
	av, bv := args[0], args[1]
	switch {
	case av.IsSmallInt() && bv.IsSmallInt():
		return 0, 0, true, av.SmallInt(), bv.SmallInt(), nil
	case av.IsFloat() || bv.IsFloat():
		af, bf := toFloat(av), toFloat(bv)
		return af, bf, false, 0, 0, nil
	case av.IsSmallInt() && bv.IsFloat(), av.IsFloat() && bv.IsSmallInt():
		return toFloat(av), toFloat(bv), false, 0, 0, nil
	default:
		return 0, 0, false, 0, 0, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "arithmetic requires Int/Float operands, got %s and %s", av.TypeName(), bv.TypeName())
	}
}

func toFloat(v objmodel.Value) float64 {
	if v.IsFloat() {
		return v.Float()
	}
	return float64(v.SmallInt())
}

func registerArithmetic() {
	binOp("value.add", func(a, b int64) (int64, bool) { return a + b, true }, func(a, b float64) float64 { return a + b })
	binOp("value.sub", func(a, b int64) (int64, bool) { return a - b, true }, func(a, b float64) float64 { return a - b })
	binOp("value.mul", func(a, b int64) (int64, bool) { return a * b, true }, func(a, b float64) float64 { return a * b })
	binOp("value.mod", func(a, b int64) (int64, bool) {
		if b == 0 {
			return 0, false
		}
		return floorModInt(a, b), true
	}, floorModFloat)

	Register(&Spec{Name: "value.div", NumArgs: 2, Effect: Pure, MayRaise: []molterr.Kind{molterr.KindZeroDivision}, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		af, bf, bothInt, a, b, err := numOperands(args)
		if err != nil {
			return 0, err
		}
		if bothInt {
			if b == 0 {
				return 0, molterr.New(molterr.KindZeroDivision, molterr.RTZeroDivision, "division by zero")
			}
			af, bf = float64(a), float64(b)
		}
		if bf == 0 {
			return 0, molterr.New(molterr.KindZeroDivision, molterr.RTZeroDivision, "division by zero")
		}
		return objmodel.FromFloat(af / bf), nil
	}})

	Register(&Spec{Name: "value.neg", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		v := args[0]
		switch {
		case v.IsSmallInt():
			return intResult(-v.SmallInt()), nil
		case v.IsFloat():
			return objmodel.FromFloat(-v.Float()), nil
		default:
			return 0, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "negation requires Int/Float, got %s", v.TypeName())
		}
	}})
}

// binOp registers a two-operand numeric intrinsic that stays in the
// small-int fast form when both operands are small ints and the int
// callback reports no overflow, otherwise promotes to float — spec §8's
// "integer arithmetic promotes on overflow ... without observable change
// in value" is the arbitrary-precision promotion the heap's KindBigInt
// owns; this fast path only covers the in-range case, leaving the
// overflow-to-bigint path to the heap-aware caller.
func binOp(name string, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) {
	Register(&Spec{Name: name, NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		af, bf, bothInt, a, b, err := numOperands(args)
		if err != nil {
			return 0, err
		}
		if bothInt {
			if r, ok := intOp(a, b); ok && objmodel.InSmallIntRange(r) {
				return intResult(r), nil
			}
			af, bf = float64(a), float64(b)
		}
		return objmodel.FromFloat(floatOp(af, bf)), nil
	}})
}

func intResult(n int64) objmodel.Value { return objmodel.FromSmallInt(n) }

// floorModInt/floorModFloat implement spec §8's "division modulus sign
// follows the divisor, not the dividend" (floored-division semantics,
// matching the source language's own % operator rather than Go's
// truncated-division %/math.Mod, which take the dividend's sign).
func floorModInt(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func floorModFloat(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func registerComparison() {
	cmp("value.lt", func(c int) bool { return c < 0 })
	cmp("value.le", func(c int) bool { return c <= 0 })
	cmp("value.gt", func(c int) bool { return c > 0 })
	cmp("value.ge", func(c int) bool { return c >= 0 })
}

func cmp(name string, pred func(int) bool) {
	Register(&Spec{Name: name, NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		af, bf, bothInt, a, b, err := numOperands(args)
		if err != nil {
			return 0, err
		}
		var c int
		if bothInt {
			c = compareInt(a, b)
		} else {
			c = compareFloat(af, bf)
		}
		return objmodel.FromBool(pred(c)), nil
	}})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func registerBool() {
	Register(&Spec{Name: "value.truthy", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		return objmodel.FromBool(truthy(ctx, args[0])), nil
	}})
	Register(&Spec{Name: "value.eq", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		eq, err := valueEqual(ctx, args[0], args[1])
		if err != nil {
			return 0, err
		}
		return objmodel.FromBool(eq), nil
	}})
	Register(&Spec{Name: "value.is_tuple_of_len", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		if !args[0].IsHeapRef() {
			return objmodel.FromBool(false), nil
		}
		obj := ctx.Heap.Table().Get(args[0].HeapIndex())
		if obj == nil || obj.Kind() != heap.KindTuple {
			return objmodel.FromBool(false), nil
		}
		tup := obj.Payload.(*TuplePayload)
		wantLen := int(args[1].SmallInt())
		return objmodel.FromBool(len(tup.Elems) == wantLen), nil
	}})
	Register(&Spec{Name: "value.isinstance", NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		return objmodel.FromBool(args[0].TypeName() == className(ctx, args[1])), nil
	}})
}

// truthy implements the language's truthiness rule: null and false are
// falsy, zero int/float is falsy, empty containers are falsy, everything
// else is truthy.
func truthy(ctx *Context, v objmodel.Value) bool {
	switch {
	case v.IsNull():
		return false
	case v.IsBool():
		return v.Bool()
	case v.IsSmallInt():
		return v.SmallInt() != 0
	case v.IsFloat():
		return v.Float() != 0
	case v.IsHeapRef():
		return !isEmptyContainer(ctx, v)
	default:
		return true
	}
}

func isEmptyContainer(ctx *Context, v objmodel.Value) bool {
	obj := ctx.Heap.Table().Get(v.HeapIndex())
	if obj == nil {
		return true
	}
	switch p := obj.Payload.(type) {
	case *ListPayload:
		return len(p.Elems) == 0
	case *TuplePayload:
		return len(p.Elems) == 0
	case *SetPayload:
		return len(p.Members) == 0
	case *MappingPayload:
		return len(p.Order) == 0
	default:
		return false
	}
}

// valueEqual implements structural equality for containers and identity
// equality for scalars/handles — scalars are already canonicalized by
// objmodel's NaN-boxing, so a raw == test covers them.
func valueEqual(ctx *Context, a, b objmodel.Value) (bool, *molterr.Error) {
	if a == b {
		return true, nil
	}
	if !a.IsHeapRef() || !b.IsHeapRef() {
		if a.IsFloat() && b.IsFloat() {
			return a.Float() == b.Float(), nil
		}
		if a.IsSmallInt() && b.IsFloat() {
			return float64(a.SmallInt()) == b.Float(), nil
		}
		if a.IsFloat() && b.IsSmallInt() {
			return a.Float() == float64(b.SmallInt()), nil
		}
		return false, nil
	}
	oa := ctx.Heap.Table().Get(a.HeapIndex())
	ob := ctx.Heap.Table().Get(b.HeapIndex())
	if oa == nil || ob == nil || oa.Kind() != ob.Kind() {
		return false, nil
	}
	switch pa := oa.Payload.(type) {
	case *ListPayload:
		pb := ob.Payload.(*ListPayload)
		return elemsEqual(ctx, pa.Elems, pb.Elems)
	case *TuplePayload:
		pb := ob.Payload.(*TuplePayload)
		return elemsEqual(ctx, pa.Elems, pb.Elems)
	default:
		return false, nil
	}
}

func elemsEqual(ctx *Context, a, b []objmodel.Value) (bool, *molterr.Error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := valueEqual(ctx, a[i], b[i])
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func className(ctx *Context, classVal objmodel.Value) string {
	if !classVal.IsHeapRef() {
		return ""
	}
	obj := ctx.Heap.Table().Get(classVal.HeapIndex())
	if obj == nil {
		return ""
	}
	if name, ok := obj.Payload.(string); ok {
		return name
	}
	return ""
}

func registerBits() {
	bitOp("value.band", func(a, b int64) int64 { return a & b })
	bitOp("value.bor", func(a, b int64) int64 { return a | b })
	bitOp("value.bxor", func(a, b int64) int64 { return a ^ b })
	bitOp("value.shl", func(a, b int64) int64 { return a << uint(b) })
	bitOp("value.shr", func(a, b int64) int64 { return a >> uint(b) })
	Register(&Spec{Name: "value.bnot", NumArgs: 1, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		if !args[0].IsSmallInt() {
			return 0, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "bitwise not requires Int, got %s", args[0].TypeName())
		}
		return intResult(^args[0].SmallInt()), nil
	}})
}

func bitOp(name string, op func(a, b int64) int64) {
	Register(&Spec{Name: name, NumArgs: 2, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		if !args[0].IsSmallInt() || !args[1].IsSmallInt() {
			return 0, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "bitwise operators require Int operands, got %s and %s", args[0].TypeName(), args[1].TypeName())
		}
		return intResult(op(args[0].SmallInt(), args[1].SmallInt())), nil
	}})
}
