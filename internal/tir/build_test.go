package tir

import (
	"testing"

	"github.com/adpena/molt/internal/hir"
	"github.com/adpena/molt/internal/parser"
)

func mustBuild(t *testing.T, src string) *Program {
	t.Helper()
	mod, errs := parser.Parse(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	l := hir.NewLowerer("test")
	h := l.Lower(mod)
	if len(l.Errors()) > 0 {
		t.Fatalf("unexpected lowering errors: %v", l.Errors())
	}
	return BuildProgram(h)
}

func TestBuildIfInsertsPhiAtJoin(t *testing.T) {
	p := mustBuild(t, "if cond:\n    x = 1\nelse:\n    x = 2\nuse(x)\n")
	init := p.Init.General
	var sawPhi bool
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if _, ok := instr.(*Phi); ok {
				sawPhi = true
			}
		}
	}
	if !sawPhi {
		t.Fatalf("expected a Phi merging x across the if/else join")
	}
}

func TestBuildWhileInsertsLoopHeaderPhi(t *testing.T) {
	p := mustBuild(t, "i = 0\nwhile i < 10:\n    i = i + 1\n")
	init := p.Init.General
	var header *Block
	for _, blk := range init.Blocks {
		if blk.Label == "whilehead" {
			header = blk
		}
	}
	if header == nil {
		t.Fatalf("expected a whilehead block")
	}
	var sawPhi bool
	for _, instr := range header.Instrs {
		if _, ok := instr.(*Phi); ok {
			sawPhi = true
		}
	}
	if !sawPhi {
		t.Fatalf("expected loop-header phi for i, got %+v", header.Instrs)
	}
}

func TestBuildCallRecognizesIntrinsicCallee(t *testing.T) {
	p := mustBuild(t, "for x in xs:\n    use(x)\n")
	init := p.Init.General
	var sawIntrinsic bool
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if call, ok := instr.(*Call); ok {
				if ref, ok := call.Callee.(*IntrinsicRef); ok && ref.Name == "iter.next" {
					sawIntrinsic = true
				}
			}
		}
	}
	if !sawIntrinsic {
		t.Fatalf("expected the lowered for-loop to call the iter.next intrinsic")
	}
}

func TestBuildTryFinallyAttachesHandlers(t *testing.T) {
	p := mustBuild(t, "try:\n    risky()\nexcept ValueError as e:\n    handle(e)\nfinally:\n    cleanup()\n")
	init := p.Init.General
	var sawHandler bool
	for _, blk := range init.Blocks {
		if len(blk.Handlers) > 0 {
			sawHandler = true
			if blk.Handlers[0].Bind != "e" {
				t.Fatalf("expected handler bind %q, got %q", "e", blk.Handlers[0].Bind)
			}
		}
	}
	if !sawHandler {
		t.Fatalf("expected entry block to carry a TryHandler")
	}
}

func TestBuildBoolOpShortCircuits(t *testing.T) {
	p := mustBuild(t, "y = a and b\n")
	init := p.Init.General
	var sawTruthyCall bool
	for _, blk := range init.Blocks {
		for _, instr := range blk.Instrs {
			if call, ok := instr.(*Call); ok {
				if ref, ok := call.Callee.(*IntrinsicRef); ok && ref.Name == "value.truthy" {
					sawTruthyCall = true
				}
			}
		}
	}
	if !sawTruthyCall {
		t.Fatalf("expected `and` to lower through a value.truthy guard")
	}
}
