package native

import (
	"strings"
	"testing"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/hir"
	"github.com/adpena/molt/internal/lir"
	"github.com/adpena/molt/internal/parser"
	"github.com/adpena/molt/internal/tir"
)

func mustLowerToLIR(t *testing.T, src string) *lir.Program {
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
	return lir.Lower(tp)
}

func TestEmitProducesPackageHeader(t *testing.T) {
	prog := mustLowerToLIR(t, "x = 1\n")
	src := NewEmitter().Emit(prog)
	if !strings.Contains(src, "package molt_native") {
		t.Fatalf("expected generated source to declare package molt_native, got:\n%s", src)
	}
	if !strings.Contains(src, "func moltInit(") {
		t.Fatalf("expected an emitted moltInit function, got:\n%s", src)
	}
}

func TestEmitIsDeterministicAcrossRuns(t *testing.T) {
	prog := mustLowerToLIR(t, "def f(a, b):\n    return a + b\n")
	a := NewEmitter().Emit(prog)
	prog2 := mustLowerToLIR(t, "def f(a, b):\n    return a + b\n")
	b := NewEmitter().Emit(prog2)
	if a != b {
		t.Fatalf("expected identical emission for identical input, got two different outputs")
	}
}

func TestBuildDigestStableForIdenticalInputsAndConfig(t *testing.T) {
	prog := mustLowerToLIR(t, "print(1)\n")
	cfg := capability.BuildConfig{HashSeed: 0, Deterministic: true}
	a1 := Build(prog, cfg, capability.Set(0))
	a2 := Build(prog, cfg, capability.Set(0))
	if a1.DigestHex() != a2.DigestHex() {
		t.Fatalf("expected byte-identical artifact digests for identical inputs+manifest, got %s vs %s", a1.DigestHex(), a2.DigestHex())
	}
}

func TestBuildDigestChangesWithCapabilityManifest(t *testing.T) {
	prog := mustLowerToLIR(t, "print(1)\n")
	cfg := capability.BuildConfig{}
	a1 := Build(prog, cfg, capability.Set(0))
	a2 := Build(prog, cfg, capability.Set(0).Grant(capability.FSRead))
	if a1.DigestHex() == a2.DigestHex() {
		t.Fatalf("expected digest to differ when the granted capability set differs")
	}
}
