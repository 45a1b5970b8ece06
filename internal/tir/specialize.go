package tir

import (
	"fmt"
	"strings"

	"github.com/adpena/molt/internal/ast"
	"github.com/adpena/molt/internal/types"
)

// specializationThreshold is the minimum number of call sites observed
// with the same argument type tuple before a dedicated Variant is worth
// generating (spec §4.2: "for every call site the inference records the
// observed argument type tuple" and generates a specialized form "above
// an observed-frequency threshold"). Below this, the general Dynamic
// variant already does the job; a one-off specialization wouldn't pay
// for the extra compiled code.
const specializationThreshold = 2

// Specialize walks every resolved call site in p, tallies how often each
// target Function is called with a given concrete argument type tuple,
// and clones a dedicated Variant for every tuple crossing
// specializationThreshold. Call Specialize after Infer: dispatch must
// already be resolved so ResolvedFunc is populated.
func Specialize(p *Program) {
	counts := map[*Function]map[string]int{}
	tuples := map[*Function]map[string][]*types.Type{}

	tally := func(v *Variant) {
		for _, blk := range v.Blocks {
			for _, instr := range blk.Instrs {
				call, ok := instr.(*Call)
				if !ok || call.Dispatch != DispatchStatic || call.ResolvedFunc == nil {
					continue
				}
				fn := call.ResolvedFunc
				if allDynamic(call.ArgTypeTuple) {
					continue
				}
				key := tupleKey(call.ArgTypeTuple)
				if counts[fn] == nil {
					counts[fn] = map[string]int{}
					tuples[fn] = map[string][]*types.Type{}
				}
				counts[fn][key]++
				tuples[fn][key] = call.ArgTypeTuple
			}
		}
	}

	for _, fn := range p.Funcs {
		if fn.General != nil {
			tally(fn.General)
		}
	}
	if p.Init.General != nil {
		tally(p.Init.General)
	}

	for fn, byTuple := range counts {
		for key, n := range byTuple {
			if n < specializationThreshold {
				continue
			}
			argTypes := tuples[fn][key]
			if len(argTypes) != len(fn.Params) {
				continue
			}
			clone := cloneVariant(fn.General, fn.Params)
			clone.ArgTypes = argTypes
			clone.CallSiteCount = n
			for i, p := range clone.Params {
				p.SetType(argTypes[i])
			}
			inferVariant(clone)
			fn.Variants = append(fn.Variants, clone)
		}
	}
}

func allDynamic(ts []*types.Type) bool {
	for _, t := range ts {
		if t != nil && t.Tag != types.TagDynamic {
			return false
		}
	}
	return true
}

func tupleKey(ts []*types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// cloneVariant deep-copies a Variant's entire block graph so a
// specialized form can diverge from the general variant (different
// Param types driving different transfer-function outcomes) without
// mutating the original. origParams gives the Function's declared
// parameter order so the clone's own Params line up positionally.
func cloneVariant(v *Variant, origParams []*Param) *Variant {
	valueMap := map[Value]Value{}
	blockMap := map[*Block]*Block{}

	clonedParams := make([]*Param, len(origParams))
	for i, p := range origParams {
		cp := &Param{Name: p.Name}
		clonedParams[i] = cp
		valueMap[p] = cp
	}

	for _, blk := range v.Blocks {
		blockMap[blk] = &Block{ID: blk.ID, Label: blk.Label}
	}

	remapValue := func(val Value) Value {
		if val == nil {
			return nil
		}
		if cv, ok := valueMap[val]; ok {
			return cv
		}
		return val
	}

	for _, blk := range v.Blocks {
		nb := blockMap[blk]
		for _, instr := range blk.Instrs {
			ni := cloneInstr(instr, remapValue, blockMap)
			valueMap[instr] = ni
			nb.Instrs = append(nb.Instrs, ni)
		}
	}
	for _, blk := range v.Blocks {
		nb := blockMap[blk]
		for _, p := range blk.Preds {
			nb.Preds = append(nb.Preds, blockMap[p])
		}
		nb.Term = cloneTerm(blk.Term, remapValue, blockMap)
		for _, h := range blk.Handlers {
			nb.Handlers = append(nb.Handlers, TryHandler{Kind: h.Kind, Bind: h.Bind, Entry: blockMap[h.Entry]})
		}
		if blk.Finally != nil {
			nb.Finally = blockMap[blk.Finally]
		}
	}
	// Phi edges and instruction operands reference the *original*
	// instructions above; walk again now that valueMap is complete for
	// every original instruction and rewrite operands in place.
	for _, blk := range v.Blocks {
		nb := blockMap[blk]
		for i, instr := range blk.Instrs {
			rewriteOperands(nb.Instrs[i], instr, remapValue)
		}
	}

	newBlocks := make([]*Block, len(v.Blocks))
	for i, blk := range v.Blocks {
		newBlocks[i] = blockMap[blk]
	}
	return &Variant{Params: clonedParams, Entry: blockMap[v.Entry], Blocks: newBlocks}
}

// cloneInstr allocates a zero-value instruction of the same concrete
// type; operand fields are filled in by rewriteOperands once every
// original instruction has a clone registered in valueMap (Phi edges can
// reference an instruction defined later in iteration order).
func cloneInstr(instr Instr, remap func(Value) Value, blockMap map[*Block]*Block) Instr {
	switch instr.(type) {
	case *Const:
		return &Const{}
	case *BinOp:
		return &BinOp{}
	case *UnaryOp:
		return &UnaryOp{}
	case *Call:
		return &Call{}
	case *LoadAttr:
		return &LoadAttr{}
	case *StoreAttr:
		return &StoreAttr{}
	case *LoadIndex:
		return &LoadIndex{}
	case *StoreIndex:
		return &StoreIndex{}
	case *MakeList:
		return &MakeList{}
	case *MakeTuple:
		return &MakeTuple{}
	case *MakeSet:
		return &MakeSet{}
	case *MakeMapping:
		return &MakeMapping{}
	case *MakeClosure:
		return &MakeClosure{}
	case *IterAcquire:
		return &IterAcquire{}
	case *IntrinsicRef:
		return &IntrinsicRef{}
	case *CaughtError:
		return &CaughtError{}
	case *Phi:
		return &Phi{}
	default:
		panic(fmt.Sprintf("tir: cloneInstr: unhandled instruction %T", instr))
	}
}

func rewriteOperands(dst Instr, src Instr, remap func(Value) Value) {
	if setter, ok := dst.(interface{ SetPos(ast.Pos) }); ok {
		setter.SetPos(src.Pos())
	}
	switch s := src.(type) {
	case *Const:
		d := dst.(*Const)
		d.Tag, d.Lit = s.Tag, s.Lit
	case *BinOp:
		d := dst.(*BinOp)
		d.Op, d.Left, d.Right = s.Op, remap(s.Left), remap(s.Right)
	case *UnaryOp:
		d := dst.(*UnaryOp)
		d.Op, d.X = s.Op, remap(s.X)
	case *Call:
		d := dst.(*Call)
		d.Callee = remap(s.Callee)
		for _, a := range s.Args {
			d.Args = append(d.Args, remap(a))
		}
		if s.Keywords != nil {
			d.Keywords = map[string]Value{}
			for k, v := range s.Keywords {
				d.Keywords[k] = remap(v)
			}
		}
		d.Dispatch = s.Dispatch
		d.ResolvedFunc = s.ResolvedFunc
		d.ArgTypeTuple = s.ArgTypeTuple
	case *LoadAttr:
		d := dst.(*LoadAttr)
		d.X, d.Name = remap(s.X), s.Name
	case *StoreAttr:
		d := dst.(*StoreAttr)
		d.X, d.Name, d.Value = remap(s.X), s.Name, remap(s.Value)
	case *LoadIndex:
		d := dst.(*LoadIndex)
		d.X, d.Index = remap(s.X), remap(s.Index)
	case *StoreIndex:
		d := dst.(*StoreIndex)
		d.X, d.Index, d.Value = remap(s.X), remap(s.Index), remap(s.Value)
	case *MakeList:
		d := dst.(*MakeList)
		for _, e := range s.Elems {
			d.Elems = append(d.Elems, remap(e))
		}
	case *MakeTuple:
		d := dst.(*MakeTuple)
		for _, e := range s.Elems {
			d.Elems = append(d.Elems, remap(e))
		}
	case *MakeSet:
		d := dst.(*MakeSet)
		for _, e := range s.Elems {
			d.Elems = append(d.Elems, remap(e))
		}
	case *MakeMapping:
		d := dst.(*MakeMapping)
		for _, k := range s.Keys {
			d.Keys = append(d.Keys, remap(k))
		}
		for _, v := range s.Values {
			d.Values = append(d.Values, remap(v))
		}
	case *MakeClosure:
		d := dst.(*MakeClosure)
		d.Func = s.Func // nested function bodies are shared, not re-specialized
		for _, c := range s.Captured {
			d.Captured = append(d.Captured, remap(c))
		}
	case *IterAcquire:
		d := dst.(*IterAcquire)
		d.Iterable = remap(s.Iterable)
	case *IntrinsicRef:
		d := dst.(*IntrinsicRef)
		d.Name = s.Name
	case *CaughtError:
		d := dst.(*CaughtError)
		d.Kind = s.Kind
	case *Phi:
		d := dst.(*Phi)
		for _, e := range s.Edges {
			d.Edges = append(d.Edges, remap(e))
		}
	}
}

func cloneTerm(term Terminator, remap func(Value) Value, blockMap map[*Block]*Block) Terminator {
	switch t := term.(type) {
	case *Jump:
		return &Jump{Target: blockMap[t.Target]}
	case *CondBranch:
		return &CondBranch{Cond: remap(t.Cond), Then: blockMap[t.Then], Else: blockMap[t.Else]}
	case *Return:
		return &Return{Value: remap(t.Value)}
	case *Raise:
		return &Raise{Value: remap(t.Value)}
	case *Unreachable:
		return &Unreachable{}
	default:
		return nil
	}
}
