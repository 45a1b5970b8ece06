package symbol

// Module is a named compilation unit: a source identity, an ordered list
// of top-level definitions, an initialization block, and a manifest of
// imported module names (spec §3). Modules are created during frontend
// lowering, are immutable thereafter, and are only destroyed at process
// shutdown (when the owning runtime instance is torn down).
type Module struct {
	Name string // e.g. "pkg/mod"
	Path string // canonicalized source path

	// Defs holds every top-level Symbol defined in this module, in
	// source order. Order matters: initialization runs top to bottom.
	Defs []*Symbol

	// Init is the symbol for the module's top-level initialization
	// block (module-level statements outside any def), or nil if the
	// module has none.
	Init *Symbol

	// Imports is the ordered, deduplicated list of module names this
	// module depends on. Import resolution is eager and happens during
	// HIR lowering (§4.1): no runtime string-to-module resolution is
	// ever introduced downstream.
	Imports []string

	Table *Table
}

// NewModule creates an empty Module; AddDef and AddImport populate it.
func NewModule(name, path string) *Module {
	return &Module{
		Name:  name,
		Path:  path,
		Table: NewTable(),
	}
}

// AddDef appends a top-level definition and registers it in the module's
// symbol table.
func (m *Module) AddDef(s *Symbol) {
	m.Defs = append(m.Defs, s)
	m.Table.Insert(s)
}

// AddImport records a module dependency, deduplicating against any
// import already recorded.
func (m *Module) AddImport(name string) {
	for _, existing := range m.Imports {
		if existing == name {
			return
		}
	}
	m.Imports = append(m.Imports, name)
}

// Graph owns every Module reachable from an entry point, keyed by module
// name. The graph is built once by the loader and is immutable for the
// lifetime of a compilation.
type Graph struct {
	modules map[string]*Module
	order   []string // topological load order
}

// NewGraph creates an empty module graph.
func NewGraph() *Graph {
	return &Graph{modules: make(map[string]*Module)}
}

// Add registers a Module in the graph. Calling Add twice for the same
// name replaces the prior entry but preserves its position in load
// order, matching the loader's "load each module exactly once" contract.
func (g *Graph) Add(m *Module) {
	if _, exists := g.modules[m.Name]; !exists {
		g.order = append(g.order, m.Name)
	}
	g.modules[m.Name] = m
}

// Lookup resolves a Module by name.
func (g *Graph) Lookup(name string) (*Module, bool) {
	m, ok := g.modules[name]
	return m, ok
}

// Order returns module names in the order they were first added, which
// for a correctly-built graph is a topological order with respect to
// Imports (dependencies before dependents).
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}
