package tir

import "github.com/adpena/molt/internal/types"

// Infer runs the monotone fixed-point type inference pass over every
// variant of every function in p (spec §4.2): repeatedly recompute each
// instruction's type from its operands via the transfer functions below
// until nothing changes. The lattice internal/types defines has finite
// height for any one program (a finite number of distinct tags and
// union combinations can appear), so this always terminates; iterations
// is capped defensively rather than relied upon.
func Infer(p *Program) {
	for _, fn := range p.Funcs {
		inferFunction(fn)
	}
	inferFunction(p.Init)
}

func inferFunction(fn *Function) {
	for _, p := range fn.Params {
		if p.Type() == nil {
			p.SetType(types.Dynamic)
		}
	}
	if fn.General != nil {
		inferVariant(fn.General)
	}
	for _, v := range fn.Variants {
		for i, p := range v.Params {
			if i < len(v.ArgTypes) {
				p.SetType(v.ArgTypes[i])
			} else {
				p.SetType(types.Dynamic)
			}
		}
		inferVariant(v)
	}
}

const maxInferIterations = 64

func inferVariant(v *Variant) {
	for iter := 0; iter < maxInferIterations; iter++ {
		changed := false
		for _, blk := range v.Blocks {
			for _, instr := range blk.Instrs {
				next := transfer(instr)
				prev := instr.Type()
				if prev == nil || !prev.Equal(next) {
					instr.SetType(next)
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	inferShapes(v)
	resolveDispatch(v)
}

// transfer computes an instruction's result type from its current
// operand types. A transfer function that cannot prove a specific
// result widens to Dynamic (spec §4.2) rather than guessing.
func transfer(instr Instr) *types.Type {
	switch n := instr.(type) {
	case *Const:
		switch n.Tag {
		case types.TagInt:
			return types.Int
		case types.TagFloat:
			return types.Float
		case types.TagStr:
			return types.Str
		case types.TagBool:
			return types.Bool
		default:
			return types.Null
		}
	case *BinOp:
		return transferBinOp(n)
	case *UnaryOp:
		if n.Op == "not" {
			return types.Bool
		}
		if n.X.Type() != nil && (n.X.Type().Tag == types.TagInt || n.X.Type().Tag == types.TagFloat) {
			return n.X.Type()
		}
		return types.Dynamic
	case *Phi:
		var acc *types.Type
		for _, e := range n.Edges {
			if e == nil {
				continue
			}
			acc = types.Join(acc, e.Type())
		}
		if acc == nil {
			return types.Dynamic
		}
		return acc
	case *MakeList:
		return types.List(elemJoin(n.Elems))
	case *MakeSet:
		return types.Set(elemJoin(n.Elems))
	case *MakeTuple:
		elems := make([]*types.Type, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = safeType(e)
		}
		return types.Tuple(elems...)
	case *MakeMapping:
		return types.Mapping(elemJoin(n.Keys), elemJoin(n.Values), nil)
	case *MakeClosure:
		return types.Callable(nil, types.Dynamic, nil)
	case *IterAcquire:
		return types.Dynamic
	case *LoadAttr, *LoadIndex:
		return types.Dynamic
	case *StoreAttr, *StoreIndex:
		return types.Null
	case *CaughtError:
		return types.Dynamic
	case *IntrinsicRef:
		return types.Dynamic
	case *Call:
		return types.Dynamic
	}
	return types.Dynamic
}

func transferBinOp(n *BinOp) *types.Type {
	lt, rt := safeType(n.Left), safeType(n.Right)
	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return types.Bool
	case "and", "or":
		return types.Join(lt, rt)
	}
	if lt.Tag == types.TagInt && rt.Tag == types.TagInt {
		return types.Int
	}
	if (lt.Tag == types.TagInt || lt.Tag == types.TagFloat) && (rt.Tag == types.TagInt || rt.Tag == types.TagFloat) {
		return types.Float
	}
	if n.Op == "+" && lt.Tag == types.TagStr && rt.Tag == types.TagStr {
		return types.Str
	}
	return types.Dynamic
}

func safeType(v Value) *types.Type {
	if v == nil || v.Type() == nil {
		return types.Dynamic
	}
	return v.Type()
}

func elemJoin(vs []Value) *types.Type {
	var acc *types.Type
	for _, v := range vs {
		acc = types.Join(acc, safeType(v))
	}
	if acc == nil {
		return types.Dynamic
	}
	return acc
}
