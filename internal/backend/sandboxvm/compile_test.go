package sandboxvm

import (
	"testing"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/hir"
	"github.com/adpena/molt/internal/lir"
	"github.com/adpena/molt/internal/objmodel"
	"github.com/adpena/molt/internal/parser"
	"github.com/adpena/molt/internal/sandbox"
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

func TestCompileIsDeterministicAcrossRuns(t *testing.T) {
	p1 := mustLowerToLIR(t, "p = {\"x\": 1, \"y\": 2}\na = p[\"x\"]\n")
	p2 := mustLowerToLIR(t, "p = {\"x\": 1, \"y\": 2}\na = p[\"x\"]\n")

	m1, err := Compile(p1, "m", "0.1.0")
	if err != nil {
		t.Fatalf("compile 1: %v", err)
	}
	m2, err := Compile(p2, "m", "0.1.0")
	if err != nil {
		t.Fatalf("compile 2: %v", err)
	}
	d1, d2 := Digest(m1), Digest(m2)
	if d1 != d2 {
		t.Fatalf("expected byte-identical sandbox module digests for identical input, got %x vs %x", d1, d2)
	}
}

func TestCompileEmitsRecordShapeLoadField(t *testing.T) {
	p := mustLowerToLIR(t, "p = {\"x\": 1, \"y\": 2}\na = p[\"x\"]\n")
	m, err := Compile(p, "m", "0.1.0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var sawRecordAlloc, sawLoadField bool
	for _, f := range m.Funcs {
		for _, ins := range f.Code {
			switch ins.Op {
			case OpAllocRecord:
				sawRecordAlloc = true
			case OpLoadField:
				sawLoadField = true
			}
		}
	}
	if !sawRecordAlloc || !sawLoadField {
		t.Fatalf("expected a record alloc and a fixed-offset field load in the compiled module, disasm:\n%s", disassembleAll(m))
	}
}

func disassembleAll(m *Module) string {
	out := ""
	for _, f := range m.Funcs {
		out += f.Name + ":\n" + Disassemble(f)
	}
	return out
}

func TestInvokeDeniesWithoutDeclaredCapability(t *testing.T) {
	p := mustLowerToLIR(t, "x = 1\n")
	m, err := Compile(p, "m", "0.1.0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m.Manifest.AddExport(sandbox.Export{
		FunctionID:    m.Funcs[0].FunctionID,
		Name:          m.Funcs[0].Name,
		InputSchemas:  []string{"in/v1"},
		OutputSchema:  "out/v1",
		Codec:         "structured/v1",
		Deterministic: true,
		Capabilities:  []string{"fs.read"},
	})

	handles := objmodel.NewRegistry()
	caps := capability.NewContext(capability.Set(0), capability.BuildConfig{})

	_, status, err := m.Invoke(m.Funcs[0].FunctionID, "", nil, handles, caps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusCapabilityDenied {
		t.Fatalf("expected StatusCapabilityDenied, got %v", status)
	}
}

func TestInvokeRunsWithGrantedCapability(t *testing.T) {
	p := mustLowerToLIR(t, "x = 1\n")
	m, err := Compile(p, "m", "0.1.0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m.Manifest.AddExport(sandbox.Export{
		FunctionID:    m.Funcs[0].FunctionID,
		Name:          m.Funcs[0].Name,
		InputSchemas:  []string{"in/v1"},
		OutputSchema:  "out/v1",
		Codec:         "structured/v1",
		Deterministic: true,
		Capabilities:  []string{"fs.read"},
	})

	handles := objmodel.NewRegistry()
	caps := capability.NewContext(capability.Set(0).Grant(capability.FSRead), capability.BuildConfig{})

	_, status, err := m.Invoke(m.Funcs[0].FunctionID, "", nil, handles, caps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusOK {
		t.Fatalf("expected StatusOK with granted capability, got %v", status)
	}
}

func TestInvokeSchemaRequiredWhenAmbiguous(t *testing.T) {
	p := mustLowerToLIR(t, "x = 1\n")
	m, err := Compile(p, "m", "0.1.0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m.Manifest.AddExport(sandbox.Export{
		FunctionID:   m.Funcs[0].FunctionID,
		Name:         m.Funcs[0].Name,
		InputSchemas: []string{"in/v1", "in/v2"},
		OutputSchema: "out/v1",
		Codec:        "structured/v1",
	})

	handles := objmodel.NewRegistry()
	caps := capability.NewContext(capability.Set(0), capability.BuildConfig{})

	_, _, err = m.Invoke(m.Funcs[0].FunctionID, "", nil, handles, caps)
	if err != sandbox.ErrSchemaRequired {
		t.Fatalf("expected ErrSchemaRequired, got %v", err)
	}
}
