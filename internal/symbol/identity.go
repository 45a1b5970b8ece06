// Package symbol implements the Molt Symbol data model: fully qualified
// names with a stable, content-derived identity hash.
package symbol

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Kind classifies what a Symbol names.
type Kind string

const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
	KindConstant Kind = "constant"
	KindVariable Kind = "variable"
)

// Effect is an observed side-effect of a symbol's body, recorded during
// HIR lowering and refined by TIR inference.
type Effect string

const (
	EffectPure        Effect = "pure"
	EffectReadsState  Effect = "reads-state"
	EffectWritesState Effect = "writes-state"
	EffectMaySuspend  Effect = "may-suspend"
	EffectMayRaise    Effect = "may-raise"
)

// ID is the stable identity hash of a Symbol: sha256(path:line:col:expr).
// The full 32-byte digest is retained for equality; String returns a
// fixed-width hex prefix suitable for logs and diagnostics.
type ID [sha256.Size]byte

// String returns the first 16 hex characters of the digest.
func (id ID) String() string {
	return hex.EncodeToString(id[:])[:16]
}

// Full returns the complete hex-encoded digest.
func (id ID) Full() string {
	return hex.EncodeToString(id[:])
}

// NewID computes a Symbol's stable identity hash from its canonicalized
// source path, 1-based line and column, and a short textual form of the
// defining expression (e.g. "def f(x, y)").
//
// Formula: sha256(canonical_path ":" line ":" col ":" expr)
func NewID(path string, line, col int, expr string) ID {
	canon := CanonicalizePath(path)
	input := fmt.Sprintf("%s:%d:%d:%s", canon, line, col, expr)
	return sha256.Sum256([]byte(input))
}

// CanonicalizePath normalizes a source path so that identity hashes are
// stable across working directories and, where the host filesystem is
// case-insensitive, across case variation in the path itself.
func CanonicalizePath(path string) string {
	path = filepath.Clean(path)

	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	if isCaseInsensitiveFS() {
		path = strings.ToLower(path)
	}

	return filepath.ToSlash(path)
}

func isCaseInsensitiveFS() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// Symbol is a fully qualified name owned by a Module's symbol table.
// Symbols are created during frontend lowering and are immutable
// thereafter; the compiler never mutates a Symbol's identity once
// assigned, only the effect set observed for it may be refined by later
// pipeline stages (monotonically, never narrowed back below what an
// earlier stage proved).
type Symbol struct {
	ID       ID
	Name     string // fully qualified, e.g. "pkg.mod.ClassName.method"
	Path     string // source file path (pre-canonicalization)
	Line     int
	Col      int
	Kind     Kind
	Effects  map[Effect]struct{}
}

// New creates a Symbol and computes its identity hash from the given
// source coordinates and a short textual rendering of the defining
// expression.
func New(name, path string, line, col int, kind Kind, expr string) *Symbol {
	return &Symbol{
		ID:      NewID(path, line, col, expr),
		Name:    name,
		Path:    path,
		Line:    line,
		Col:     col,
		Kind:    kind,
		Effects: make(map[Effect]struct{}),
	}
}

// AddEffect records an observed effect. Idempotent.
func (s *Symbol) AddEffect(e Effect) {
	s.Effects[e] = struct{}{}
}

// HasEffect reports whether an effect has been observed for this symbol.
func (s *Symbol) HasEffect(e Effect) bool {
	_, ok := s.Effects[e]
	return ok
}

// Table owns all Symbols for a Module graph and provides identity-hash
// lookup. A Table is built once during frontend lowering and is read-only
// for the remainder of the pipeline.
type Table struct {
	byID   map[ID]*Symbol
	byName map[string]*Symbol
}

// NewTable creates an empty symbol table.
func NewTable() *Table {
	return &Table{
		byID:   make(map[ID]*Symbol),
		byName: make(map[string]*Symbol),
	}
}

// Insert adds a Symbol to the table. It is a defect (panic) to insert two
// symbols with the same identity hash but different fully qualified
// names; that would indicate a hash collision or a lowering bug.
func (t *Table) Insert(s *Symbol) {
	if existing, ok := t.byID[s.ID]; ok && existing.Name != s.Name {
		panic(fmt.Sprintf("symbol identity collision: %s and %s both hash to %s", existing.Name, s.Name, s.ID))
	}
	t.byID[s.ID] = s
	t.byName[s.Name] = s
}

// Lookup resolves a Symbol by its identity hash.
func (t *Table) Lookup(id ID) (*Symbol, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// LookupName resolves a Symbol by its fully qualified name.
func (t *Table) LookupName(name string) (*Symbol, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.byID)
}
