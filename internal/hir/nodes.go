// Package hir implements the high-level intermediate representation
// spec §4.1 describes: a desugared tree where syntactic sugar
// (iteration, with-blocks, comprehensions, pattern matching, compound
// assignment targets) has been rewritten into a small explicit core —
// `while` loops over an iterator-acquisition operator, `try`/`finally`
// pairs, generator-state-machine closures, decision trees, and
// primitive store operations, respectively.
//
// Grounded on the teacher's internal/core (the teacher's own desugared
// tree between parsed AST and its evaluator/elaborator) for the general
// "smaller explicit node set than the surface AST, same position
// tracking" shape, and internal/dtree (decision-tree-over-type-tags
// compilation) for MatchLowered's structure.
package hir

import "github.com/adpena/molt/internal/ast"

// Node is implemented by every HIR node.
type Node interface {
	Pos() ast.Pos
}

type Stmt interface {
	Node
	hirStmt()
}

type Expr interface {
	Node
	hirExpr()
}

type base struct{ P ast.Pos }

func (b base) Pos() ast.Pos { return b.P }

// Module is a lowered compilation unit: one per source ast.Module.
type Module struct {
	base
	Name  string
	Funcs []*FuncDef
	Init  []Stmt
}

// FuncDef is a lowered function: parameters plus an explicit-core body.
// Synthetic functions introduced by comprehension/generator lowering
// also take this shape, with Synthetic set and Captures recording the
// free variables closed over from the enclosing scope (spec §4.1
// "preserving lexical capture").
type FuncDef struct {
	base
	Name      string
	Params    []string
	Body      []Stmt
	Synthetic bool
	Captures  []string
}

// ---- Statements ----

type Assign struct {
	base
	Target Expr // Ident, AttrStore, IndexStore — already linearized
	Value  Expr
}

func (*Assign) hirStmt() {}

type ExprStmt struct {
	base
	X Expr
}

func (*ExprStmt) hirStmt() {}

type Return struct {
	base
	Value Expr
}

func (*Return) hirStmt() {}

type If struct {
	base
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*If) hirStmt() {}

// While is the only looping construct in HIR; For is always lowered
// into one (spec §4.1).
type While struct {
	base
	Cond Expr
	Body []Stmt
}

func (*While) hirStmt() {}

// TryFinally is the only exception-scoping construct in HIR; With is
// always lowered into one (spec §4.1), and Try/Except is lowered into
// one with Handlers attached for the dispatch pass.
type TryFinally struct {
	base
	Body     []Stmt
	Handlers []Handler
	Finally  []Stmt
}

type Handler struct {
	Kind string
	Bind string // temp name the caught error is bound to, "" if none
	Body []Stmt
}

func (*TryFinally) hirStmt() {}

type Raise struct {
	base
	Value Expr
}

func (*Raise) hirStmt() {}

type Break struct{ base }

func (*Break) hirStmt() {}

type Continue struct{ base }

func (*Continue) hirStmt() {}

type Pass struct{ base }

func (*Pass) hirStmt() {}

// Import resolves eagerly to a module identity (spec §4.1 "no runtime
// string-to-module resolution is introduced"); by the time HIR is built
// Module already names a concrete entry in the symbol.Graph.
type Import struct {
	base
	Module string
	Bind   string
}

func (*Import) hirStmt() {}

// ---- Expressions ----

type Ident struct {
	base
	Name string
}

func (*Ident) hirExpr() {}

type ConstInt struct {
	base
	Value string
}

func (*ConstInt) hirExpr() {}

type ConstFloat struct {
	base
	Value float64
}

func (*ConstFloat) hirExpr() {}

type ConstStr struct {
	base
	Value string
}

func (*ConstStr) hirExpr() {}

type ConstBool struct {
	base
	Value bool
}

func (*ConstBool) hirExpr() {}

type ConstNull struct{ base }

func (*ConstNull) hirExpr() {}

type BinOp struct {
	base
	Op          string
	Left, Right Expr
}

func (*BinOp) hirExpr() {}

type UnaryOp struct {
	base
	Op string
	X  Expr
}

func (*UnaryOp) hirExpr() {}

type BoolOp struct {
	base
	Op     string
	Values []Expr
}

func (*BoolOp) hirExpr() {}

type Call struct {
	base
	Func     Expr
	Args     []Expr
	Keywords map[string]Expr
}

func (*Call) hirExpr() {}

// IterAcquire is the explicit iterator-acquisition operator spec §4.1
// names: obtaining an iterator value from an iterable.
type IterAcquire struct {
	base
	Iterable Expr
}

func (*IterAcquire) hirExpr() {}

// LoadAttr / StoreAttr and LoadIndex / StoreIndex split read and write
// forms so Assign's Target is always a store-form node, never a
// read-form one used as an lvalue (linearization, spec §4.1).
type LoadAttr struct {
	base
	X    Expr
	Name string
}

func (*LoadAttr) hirExpr() {}

type StoreAttr struct {
	base
	X    Expr
	Name string
}

func (*StoreAttr) hirExpr() {}

type LoadIndex struct {
	base
	X, Index Expr
}

func (*LoadIndex) hirExpr() {}

type StoreIndex struct {
	base
	X, Index Expr
}

func (*StoreIndex) hirExpr() {}

type MakeList struct {
	base
	Elems []Expr
}

func (*MakeList) hirExpr() {}

type MakeTuple struct {
	base
	Elems []Expr
}

func (*MakeTuple) hirExpr() {}

type MakeSet struct {
	base
	Elems []Expr
}

func (*MakeSet) hirExpr() {}

type MakeMapping struct {
	base
	Keys, Values []Expr
}

func (*MakeMapping) hirExpr() {}

// MakeClosure references a synthesized or source FuncDef plus the
// runtime values captured for its free variables.
type MakeClosure struct {
	base
	Func     *FuncDef
	Captured []Expr
}

func (*MakeClosure) hirExpr() {}
