package tir

import (
	"testing"

	"github.com/adpena/molt/internal/types"
)

func TestInferAssignsArithmeticResultTypes(t *testing.T) {
	p := mustBuild(t, "x = 1 + 2\n")
	Infer(p)
	init := p.Init.General
	var bin *BinOp
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if b, ok := instr.(*BinOp); ok {
				bin = b
			}
		}
	}
	if bin == nil {
		t.Fatalf("expected a BinOp instruction")
	}
	if bin.Type() == nil || bin.Type().Tag != types.TagInt {
		t.Fatalf("expected Int, got %v", bin.Type())
	}
}

func TestInferJoinsPhiAcrossIfBranches(t *testing.T) {
	p := mustBuild(t, "if cond:\n    x = 1\nelse:\n    x = 2.0\nuse(x)\n")
	Infer(p)
	init := p.Init.General
	var phi *Phi
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if ph, ok := instr.(*Phi); ok {
				phi = ph
			}
		}
	}
	if phi == nil {
		t.Fatalf("expected a Phi")
	}
	if phi.Type() == nil || phi.Type().Tag != types.TagUnion {
		t.Fatalf("expected Int and Float to join to a union, got %v", phi.Type())
	}
}

func TestInferComparisonProducesBool(t *testing.T) {
	p := mustBuild(t, "y = 1 < 2\n")
	Infer(p)
	init := p.Init.General
	var bin *BinOp
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if b, ok := instr.(*BinOp); ok {
				bin = b
			}
		}
	}
	if bin == nil || bin.Type().Tag != types.TagBool {
		t.Fatalf("expected Bool, got %v", bin.Type())
	}
}

func TestResolveDispatchMarksIntrinsicCallsStatic(t *testing.T) {
	p := mustBuild(t, "for x in xs:\n    use(x)\n")
	Infer(p)
	init := p.Init.General
	var call *Call
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if c, ok := instr.(*Call); ok {
				if ref, ok := c.Callee.(*IntrinsicRef); ok && ref.Name == "iter.next" {
					call = c
				}
			}
		}
	}
	if call == nil {
		t.Fatalf("expected to find the iter.next call")
	}
	if call.Dispatch != DispatchStatic {
		t.Fatalf("expected Static dispatch for an intrinsic call, got %v", call.Dispatch)
	}
}

func TestInferShapesAssignsRecordShapeToNonEscapingMapping(t *testing.T) {
	p := mustBuild(t, "p = {\"x\": 1, \"y\": 2}\na = p[\"x\"]\n")
	Infer(p)
	init := p.Init.General
	var mm *MakeMapping
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if m, ok := instr.(*MakeMapping); ok {
				mm = m
			}
		}
	}
	if mm == nil {
		t.Fatalf("expected a MakeMapping instruction")
	}
	ty := mm.Type()
	if ty == nil || ty.Tag != types.TagMapping || ty.Shape == nil {
		t.Fatalf("expected a shaped mapping type, got %v", ty)
	}
	if _, ok := ty.Shape.Lookup("x"); !ok {
		t.Fatalf("expected shape to record key x, got %v", ty.Shape.Keys())
	}
}

func TestInferShapesDissolvesOnEscape(t *testing.T) {
	p := mustBuild(t, "p = {\"x\": 1}\nsend(p)\n")
	Infer(p)
	init := p.Init.General
	var mm *MakeMapping
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if m, ok := instr.(*MakeMapping); ok {
				mm = m
			}
		}
	}
	if mm == nil {
		t.Fatalf("expected a MakeMapping instruction")
	}
	if mm.Type() != nil && mm.Type().Shape != nil {
		t.Fatalf("expected shape to dissolve once the mapping escapes through a call, got %v", mm.Type())
	}
}
