package lir

import (
	"testing"

	"github.com/adpena/molt/internal/hir"
	"github.com/adpena/molt/internal/parser"
	"github.com/adpena/molt/internal/tir"
)

func mustLowerToLIR(t *testing.T, src string) *Program {
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
	tp := tir.BuildProgram(h)
	tir.Infer(tp)
	tir.Specialize(tp)
	return Lower(tp)
}

func TestLowerRecordShapedMappingUsesFixedOffsetFields(t *testing.T) {
	p := mustLowerToLIR(t, "p = {\"x\": 1, \"y\": 2}\na = p[\"x\"]\n")
	init := p.Init
	var sawRecordAlloc, sawStoreField, sawLoadField bool
	for _, blk := range init.Blocks {
		for _, op := range blk.Ops {
			switch o := op.(type) {
			case *Alloc:
				if o.Kind == AllocRecord {
					sawRecordAlloc = true
				}
			case *StoreField:
				sawStoreField = true
			case *LoadField:
				sawLoadField = true
			}
		}
	}
	if !sawRecordAlloc {
		t.Fatalf("expected the shaped mapping to allocate as a record")
	}
	if !sawStoreField {
		t.Fatalf("expected field stores for the literal's keys")
	}
	if !sawLoadField {
		t.Fatalf("expected the constant-key load to resolve to a fixed field offset")
	}
}

func TestLowerDynamicMappingStaysPassthrough(t *testing.T) {
	p := mustLowerToLIR(t, "p = {\"x\": 1}\nsend(p)\n")
	init := p.Init
	var sawDynamicAlloc bool
	for _, blk := range init.Blocks {
		for _, op := range blk.Ops {
			if a, ok := op.(*Alloc); ok && a.Kind == AllocMapping {
				sawDynamicAlloc = true
			}
		}
	}
	if !sawDynamicAlloc {
		t.Fatalf("expected a mapping that escapes through a call to stay a dynamic Alloc")
	}
}

func TestInsertRCRetainsEscapingAllocAndReleasesLocalOnes(t *testing.T) {
	p := mustLowerToLIR(t, "if cond:\n    p = {\"x\": 1, \"y\": 2}\n    use(p[\"x\"])\nelse:\n    q = {\"x\": 1, \"y\": 2}\n    return q\n")
	init := p.Init
	var sawRelease, sawRetain bool
	for _, blk := range init.Blocks {
		for _, op := range blk.Ops {
			switch op.(type) {
			case *Release:
				sawRelease = true
			case *Retain:
				sawRetain = true
			}
		}
	}
	if !sawRelease {
		t.Fatalf("expected a Release for the record that never leaves its defining block")
	}
	if !sawRetain {
		t.Fatalf("expected a Retain for the record returned out of its defining block")
	}
}

func TestElideAdjacentRetainRelease(t *testing.T) {
	a := &Alloc{Kind: AllocList}
	ops := []Op{a, &Retain{X: a}, &Release{X: a}}
	out := elideAdjacentRetainRelease(ops)
	if len(out) != 1 {
		t.Fatalf("expected the matched retain/release pair to be elided, got %d ops", len(out))
	}
}
