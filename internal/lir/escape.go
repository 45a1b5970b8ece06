package lir

import "github.com/adpena/molt/internal/tir"

// insertRC implements spec §4.3's RC-elision rule: "A value that does
// not outlive its defining block and is not written into a heap cell
// may be stack- or register-allocated. A matched retain/release pair on
// the same value with no intervening observable side-effect is
// eliminated." It runs after a Function's blocks are fully built: for
// every Alloc, decide whether its value escapes its defining block (is
// read from a different block, returned, raised, or written into
// another container/field); escaping values get an explicit Retain
// right after the Alloc, non-escaping ones get StackAllocatable set and
// an explicit Release just before their defining block's terminator.
// A final peephole then drops any Retain immediately followed by a
// Release of the same value with nothing between them.
func insertRC(fn *Function, valueMap map[tir.Value]Value) {
	defBlock := map[*Alloc]*Block{}
	for _, blk := range fn.Blocks {
		for _, op := range blk.Ops {
			if a, ok := op.(*Alloc); ok {
				defBlock[a] = blk
			}
		}
	}
	if len(defBlock) == 0 {
		return
	}

	escapes := map[*Alloc]bool{}
	markEscapeIfAlloc := func(v Value, usingBlock *Block) {
		a, ok := v.(*Alloc)
		if !ok {
			return
		}
		if defBlock[a] != usingBlock {
			escapes[a] = true
		}
	}
	// markEscape records a value that escapes wherever it is used:
	// returned, raised, or written into another container/field.
	markEscape := func(v Value) {
		if a, ok := v.(*Alloc); ok {
			escapes[a] = true
		}
	}

	for _, blk := range fn.Blocks {
		for _, op := range blk.Ops {
			switch n := op.(type) {
			case *Retain:
				markEscapeIfAlloc(n.X, blk)
			case *Release:
				markEscapeIfAlloc(n.X, blk)
			case *LoadField, *GuardedLoadField:
				// reads don't themselves extend lifetime past the block
			case *StoreField:
				markEscape(n.Val)
			case *GuardedStoreField:
				markEscape(n.Val)
			case *ChannelSend:
				markEscape(n.Val)
			case *TaskSpawn:
				for _, a := range n.Args {
					markEscape(a)
				}
			case *Passthrough:
				for _, operand := range tirOperands(n.Instr) {
					if mapped, ok := valueMap[operand]; ok {
						markEscapeIfAlloc(mapped, blk)
					}
				}
			}
		}
		switch t := blk.Term.(type) {
		case *Return:
			markEscape(t.Value)
		case *Raise:
			markEscape(t.Value)
		case *CondBranch:
			markEscapeIfAlloc(t.Cond, blk)
		}
	}

	for a, blk := range defBlock {
		if escapes[a] {
			insertAfter(blk, a, &Retain{X: a})
		} else {
			a.StackAllocatable = true
			insertBeforeTerm(blk, &Release{X: a})
		}
	}

	for _, blk := range fn.Blocks {
		blk.Ops = elideAdjacentRetainRelease(blk.Ops)
	}
}

// tirOperands returns the direct Value operands a wrapped TIR
// instruction reads, so insertRC can tell whether any of them is a
// container this pass already replaced with an Alloc.
func tirOperands(instr tir.Instr) []tir.Value {
	switch n := instr.(type) {
	case *tir.BinOp:
		return []tir.Value{n.Left, n.Right}
	case *tir.UnaryOp:
		return []tir.Value{n.X}
	case *tir.Call:
		ops := append([]tir.Value{n.Callee}, n.Args...)
		for _, v := range n.Keywords {
			ops = append(ops, v)
		}
		return ops
	case *tir.LoadAttr:
		return []tir.Value{n.X}
	case *tir.StoreAttr:
		return []tir.Value{n.X, n.Value}
	case *tir.IterAcquire:
		return []tir.Value{n.Iterable}
	case *tir.LoadIndex:
		return []tir.Value{n.X, n.Index}
	case *tir.StoreIndex:
		return []tir.Value{n.X, n.Index, n.Value}
	case *tir.Phi:
		return n.Edges
	default:
		return nil
	}
}

func insertAfter(blk *Block, after Op, op Op) {
	for i, o := range blk.Ops {
		if o == after {
			blk.Ops = append(blk.Ops[:i+1], append([]Op{op}, blk.Ops[i+1:]...)...)
			return
		}
	}
	blk.Ops = append(blk.Ops, op)
}

func insertBeforeTerm(blk *Block, op Op) {
	blk.Ops = append(blk.Ops, op)
}

func elideAdjacentRetainRelease(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	i := 0
	for i < len(ops) {
		if i+1 < len(ops) {
			r, isRetain := ops[i].(*Retain)
			rel, isRelease := ops[i+1].(*Release)
			if isRetain && isRelease && r.X == rel.X {
				i += 2
				continue
			}
		}
		out = append(out, ops[i])
		i++
	}
	return out
}
