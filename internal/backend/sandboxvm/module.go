package sandboxvm

import "github.com/adpena/molt/internal/sandbox"

// Func is one compiled guest function: a flat instruction stream plus
// its block boundaries (Jump/CondBranch targets are instruction
// indices into Code, not separate Block objects, since a sandbox
// module's linear instruction stream has no need for internal/lir's
// richer block-graph representation once lowering is done).
type Func struct {
	Name       string
	FunctionID uint32
	NumParams  int
	Code       []Instr
}

// Module is the compiled sandbox artifact: guest functions plus the
// export manifest sidecar (spec §6.1) that names which functions are
// callable from the host, under which schemas, with which capability
// requirements. LinearMemSize is the initial linear-memory size in
// bytes a host must allocate before invoking any export.
type Module struct {
	Name          string
	Version       string
	LinearMemSize uint32
	Funcs         []*Func
	Manifest      *sandbox.Manifest
}

// FuncByID finds a guest function by its stable numeric identifier
// (spec §6.3 "identified by a stable numeric identifier").
func (m *Module) FuncByID(id uint32) *Func {
	for _, f := range m.Funcs {
		if f.FunctionID == id {
			return f
		}
	}
	return nil
}

// ExportByID finds the export manifest entry matching a function ID.
func (m *Module) ExportByID(id uint32) *sandbox.Export {
	for i := range m.Manifest.Exports {
		if m.Manifest.Exports[i].FunctionID == id {
			return &m.Manifest.Exports[i]
		}
	}
	return nil
}
