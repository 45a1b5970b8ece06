package lir

import (
	"github.com/adpena/molt/internal/tir"
	"github.com/adpena/molt/internal/types"
)

// Lower builds a Program from a fully inferred tir.Program (run
// tir.Infer and tir.Specialize first — shapes and dispatch decisions
// drive this pass's allocation and field-access choices).
func Lower(p *tir.Program) *Program {
	out := &Program{Name: p.Name}
	for _, fn := range p.Funcs {
		out.Funcs = append(out.Funcs, lowerFunction(fn))
	}
	out.Init = lowerFunction(p.Init)
	return out
}

func lowerFunction(fn *tir.Function) *Function {
	// The general variant is the compiled form every unspecialized call
	// site targets and supplies the Function's Entry and Params. Each
	// specialized Variant's blocks are lowered and appended to the same
	// Function's Blocks; no separate Function, entry block or parameter
	// list is recorded for a variant.
	out := &Function{Name: fn.Name, Synthetic: fn.Synthetic}
	variants := []*tir.Variant{}
	if fn.General != nil {
		variants = append(variants, fn.General)
	}
	variants = append(variants, fn.Variants...)
	if len(variants) == 0 {
		return out
	}
	lowerVariantInto(out, variants[0], fn.Params)
	for _, v := range variants[1:] {
		extra := &Function{Name: fn.Name, Synthetic: fn.Synthetic}
		lowerVariantInto(extra, v, v.Params)
		// Only the variant's blocks are kept; its entry block and Params
		// are dropped.
		out.Blocks = append(out.Blocks, extra.Blocks...)
	}
	return out
}

func lowerVariantInto(fn *Function, v *tir.Variant, params []*tir.Param) {
	valueMap := map[tir.Value]Value{}
	blockMap := map[*tir.Block]*Block{}
	for _, p := range params {
		param := &Param{Name: p.Name}
		param.SetType(p.Type())
		fn.Params = append(fn.Params, param)
		valueMap[p] = param
	}
	for _, blk := range v.Blocks {
		blockMap[blk] = &Block{ID: blk.ID, Label: blk.Label}
	}
	for _, blk := range v.Blocks {
		lowerBlockBody(blockMap[blk], blk, valueMap)
	}
	for _, blk := range v.Blocks {
		nb := blockMap[blk]
		for _, p := range blk.Preds {
			nb.Preds = append(nb.Preds, blockMap[p])
		}
		nb.Term = lowerTerm(blk.Term, valueMap, blockMap)
	}
	fn.Entry = blockMap[v.Entry]
	for _, blk := range v.Blocks {
		fn.Blocks = append(fn.Blocks, blockMap[blk])
	}
	insertRC(fn, valueMap)
}

func lv(valueMap map[tir.Value]Value, v tir.Value) Value {
	if v == nil {
		return nil
	}
	if mapped, ok := valueMap[v]; ok {
		return mapped
	}
	return Wrap(v)
}

func lowerBlockBody(out *Block, blk *tir.Block, valueMap map[tir.Value]Value) {
	for _, instr := range blk.Instrs {
		switch n := instr.(type) {
		case *tir.MakeMapping:
			ops := lowerMakeMapping(n, valueMap)
			valueMap[instr] = ops[0] // the leading Alloc is this instruction's value identity
			out.Ops = append(out.Ops, ops...)
		case *tir.MakeList:
			a := &Alloc{Kind: AllocList}
			a.SetType(n.Type())
			valueMap[instr] = a
			out.Ops = append(out.Ops, a, passthroughFor(n))
		case *tir.MakeTuple:
			a := &Alloc{Kind: AllocTuple}
			a.SetType(n.Type())
			valueMap[instr] = a
			out.Ops = append(out.Ops, a, passthroughFor(n))
		case *tir.MakeSet:
			a := &Alloc{Kind: AllocSet}
			a.SetType(n.Type())
			valueMap[instr] = a
			out.Ops = append(out.Ops, a, passthroughFor(n))
		case *tir.MakeClosure:
			a := &Alloc{Kind: AllocClosure}
			a.SetType(n.Type())
			valueMap[instr] = a
			out.Ops = append(out.Ops, a, passthroughFor(n))
		case *tir.LoadIndex:
			op := lowerLoadIndex(n, valueMap)
			valueMap[instr] = op
			out.Ops = append(out.Ops, op)
		case *tir.StoreIndex:
			op := lowerStoreIndex(n, valueMap)
			out.Ops = append(out.Ops, op)
		default:
			p := &Passthrough{Instr: instr}
			p.SetType(instr.Type())
			valueMap[instr] = p
			out.Ops = append(out.Ops, p)
		}
	}
}

// passthroughFor records a container-producing instruction's own
// Passthrough alongside its Alloc so the original element list (Elems/
// Captured) remains reachable in TIR's own terms — this stage only
// needs to make the allocation itself explicit, not re-express every
// element store.
func passthroughFor(instr tir.Instr) Op {
	p := &Passthrough{Instr: instr}
	p.SetType(instr.Type())
	return p
}

// recordShapeOf reports the shape a mapping-typed value was proven to
// hold, if any.
func recordShapeOf(v tir.Value) *types.Shape {
	if v == nil || v.Type() == nil || v.Type().Tag != types.TagMapping {
		return nil
	}
	return v.Type().Shape
}

func lowerMakeMapping(n *tir.MakeMapping, valueMap map[tir.Value]Value) []Op {
	shape := recordShapeOf(n)
	if shape == nil {
		a := &Alloc{Kind: AllocMapping}
		a.SetType(n.Type())
		return []Op{a, passthroughFor(n)}
	}
	a := &Alloc{Kind: AllocRecord, Shape: shape}
	a.SetType(n.Type())
	ops := []Op{a}
	for i, key := range n.Keys {
		k, ok := key.(*tir.Const)
		if !ok || k.Tag != types.TagStr {
			continue
		}
		keyStr, _ := k.Lit.(string)
		idx, found := fieldIndex(shape, keyStr)
		if !found {
			continue
		}
		ops = append(ops, &StoreField{X: a, FieldIndex: idx, FieldName: keyStr, Val: lv(valueMap, n.Values[i])})
	}
	return ops
}

func fieldIndex(shape *types.Shape, key string) (int, bool) {
	for i, k := range shape.Keys() {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

// lowerLoadIndex resolves a constant-string-keyed access against a
// proven record shape to a fixed-offset LoadField; a shape that might
// still widen on some other path gets a GuardedLoadField instead
// (spec §4.3: "a guarded path keeps both representations synchronized
// at the boundary"); anything else stays a dynamic Passthrough.
func lowerLoadIndex(n *tir.LoadIndex, valueMap map[tir.Value]Value) Op {
	key, isConstStr := n.Index.(*tir.Const)
	shape := recordShapeOf(n.X)
	if isConstStr && key.Tag == types.TagStr && shape != nil {
		keyStr, _ := key.Lit.(string)
		if idx, found := fieldIndex(shape, keyStr); found {
			if _, isDirectAlloc := valueMap[n.X].(*Alloc); isDirectAlloc {
				op := &LoadField{X: lv(valueMap, n.X), FieldIndex: idx, FieldName: keyStr}
				op.SetType(n.Type())
				return op
			}
			op := &GuardedLoadField{X: lv(valueMap, n.X), FieldIndex: idx, FieldName: keyStr}
			op.SetType(n.Type())
			return op
		}
	}
	p := &Passthrough{Instr: n}
	p.SetType(n.Type())
	return p
}

func lowerStoreIndex(n *tir.StoreIndex, valueMap map[tir.Value]Value) Op {
	key, isConstStr := n.Index.(*tir.Const)
	shape := recordShapeOf(n.X)
	if isConstStr && key.Tag == types.TagStr && shape != nil {
		keyStr, _ := key.Lit.(string)
		if idx, found := fieldIndex(shape, keyStr); found {
			val := lv(valueMap, n.Value)
			if _, isDirectAlloc := valueMap[n.X].(*Alloc); isDirectAlloc {
				op := &StoreField{X: lv(valueMap, n.X), FieldIndex: idx, FieldName: keyStr, Val: val}
				op.SetType(types.Null)
				return op
			}
			op := &GuardedStoreField{X: lv(valueMap, n.X), FieldIndex: idx, FieldName: keyStr, Val: val}
			op.SetType(types.Null)
			return op
		}
	}
	p := &Passthrough{Instr: n}
	p.SetType(n.Type())
	return p
}

func lowerTerm(term tir.Terminator, valueMap map[tir.Value]Value, blockMap map[*tir.Block]*Block) Terminator {
	switch t := term.(type) {
	case *tir.Jump:
		return &Jump{Target: blockMap[t.Target]}
	case *tir.CondBranch:
		return &CondBranch{Cond: lv(valueMap, t.Cond), Then: blockMap[t.Then], Else: blockMap[t.Else]}
	case *tir.Return:
		return &Return{Value: lv(valueMap, t.Value)}
	case *tir.Raise:
		return &Raise{Value: lv(valueMap, t.Value)}
	case *tir.Unreachable:
		return &Unreachable{}
	default:
		return nil
	}
}

// Param is a lowered function parameter.
type Param struct {
	valueBase
	Name string
}
