package sandboxvm

import (
	"fmt"

	"github.com/adpena/molt/internal/lir"
	"github.com/adpena/molt/internal/sandbox"
)

// Compile lowers a fully inferred, specialized, and ownership-explicit
// lir.Program to a sandboxvm.Module. Unlike internal/backend/native
// (which defers to a downstream Go compiler for the actual machine
// code), this backend performs the whole lowering itself: a sandbox
// module's "machine code" is exactly the flat Instr stream a Func
// holds.
//
// Compile assigns every lir.Value a deterministic slot number in first-
// appearance order (walking Blocks, then each Block's Ops, in the order
// internal/lir already produced them) so two compiles of the same
// program emit identical slot numbers and therefore identical Instr
// bytes — the reproducibility property of spec §8.
func Compile(prog *lir.Program, moduleName, moduleVersion string) (*Module, error) {
	m := &Module{
		Name:          moduleName,
		Version:       moduleVersion,
		LinearMemSize: defaultLinearMemSize,
		Manifest:      sandbox.New(moduleName, moduleVersion),
	}

	funcID := uint32(0)
	compileOne := func(fn *lir.Function) (*Func, error) {
		c := &compiler{slots: map[lir.Value]uint32{}}
		code, err := c.compileFunction(fn)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", fn.Name, err)
		}
		f := &Func{Name: fn.Name, FunctionID: funcID, NumParams: len(fn.Params), Code: code}
		funcID++
		return f, nil
	}

	if prog.Init != nil {
		f, err := compileOne(prog.Init)
		if err != nil {
			return nil, err
		}
		m.Funcs = append(m.Funcs, f)
	}
	for _, fn := range prog.Funcs {
		f, err := compileOne(fn)
		if err != nil {
			return nil, err
		}
		m.Funcs = append(m.Funcs, f)
	}
	return m, nil
}

// defaultLinearMemSize is a conservative starting guest heap size; a
// real build would size this from the compiled program's allocation
// profile, which this backend does not yet estimate.
const defaultLinearMemSize = 64 * 1024

// compiler holds the per-function state needed to flatten a lir.Block
// graph into one linear Instr stream.
type compiler struct {
	slots    map[lir.Value]uint32
	nextSlot uint32

	blockStart map[*lir.Block]int // resolved after a first linear pass
}

func (c *compiler) slotOf(v lir.Value) uint32 {
	if v == nil {
		return 0
	}
	if s, ok := c.slots[v]; ok {
		return s
	}
	s := c.nextSlot
	c.nextSlot++
	c.slots[v] = s
	return s
}

// compileFunction performs a two-pass flatten: first lay out every
// block's instructions back to back recording each block's starting
// instruction index, then patch OpJump/OpCondBranch operands (which
// were emitted as placeholders holding the target *lir.Block's pointer
// identity via a side table) to concrete indices.
func (c *compiler) compileFunction(fn *lir.Function) ([]Instr, error) {
	var code []Instr
	c.blockStart = map[*lir.Block]int{}
	type pendingJump struct {
		at     int
		target *lir.Block
		field  int // 0 = A (unconditional target), 1 = B (then), 2 = C (else)
	}
	var pending []pendingJump

	for _, blk := range fn.Blocks {
		c.blockStart[blk] = len(code)
		for _, op := range blk.Ops {
			ins, err := c.compileOp(op)
			if err != nil {
				return nil, err
			}
			code = append(code, ins...)
		}
		switch t := blk.Term.(type) {
		case *lir.Jump:
			pending = append(pending, pendingJump{at: len(code), target: t.Target, field: 0})
			code = append(code, Instr{Op: OpJump})
		case *lir.CondBranch:
			idx := len(code)
			pending = append(pending, pendingJump{at: idx, target: t.Then, field: 1})
			pending = append(pending, pendingJump{at: idx, target: t.Else, field: 2})
			code = append(code, Instr{Op: OpCondBranch, A: c.slotOf(t.Cond)})
		case *lir.Return:
			code = append(code, Instr{Op: OpReturn, A: c.slotOf(t.Value)})
		case *lir.Raise:
			code = append(code, Instr{Op: OpRaise, A: c.slotOf(t.Value)})
		case *lir.Unreachable, nil:
			code = append(code, Instr{Op: OpUnreachable})
		}
	}

	for _, p := range pending {
		target := uint32(c.blockStart[p.target])
		switch p.field {
		case 0:
			code[p.at].A = target
		case 1:
			code[p.at].B = target
		case 2:
			code[p.at].C = target
		}
	}
	return code, nil
}

func (c *compiler) compileOp(op lir.Op) ([]Instr, error) {
	dst := c.slotOf(op)
	switch o := op.(type) {
	case *lir.Alloc:
		return []Instr{{Op: allocOpcode(o.Kind), A: dst}}, nil
	case *lir.Retain:
		return []Instr{{Op: OpRetain, A: c.slotOf(o.X)}}, nil
	case *lir.Release:
		return []Instr{{Op: OpRelease, A: c.slotOf(o.X)}}, nil
	case *lir.LoadField:
		return []Instr{{Op: OpLoadField, A: dst, B: c.slotOf(o.X), C: uint32(o.FieldIndex)}}, nil
	case *lir.StoreField:
		return []Instr{{Op: OpStoreField, A: c.slotOf(o.X), B: uint32(o.FieldIndex), C: c.slotOf(o.Val)}}, nil
	case *lir.GuardedLoadField:
		return []Instr{{Op: OpGuardedLoadField, A: dst, B: c.slotOf(o.X), C: uint32(o.FieldIndex)}}, nil
	case *lir.GuardedStoreField:
		return []Instr{{Op: OpGuardedStoreField, A: c.slotOf(o.X), B: uint32(o.FieldIndex), C: c.slotOf(o.Val)}}, nil
	case *lir.ResolveHandle:
		return []Instr{{Op: OpResolveHandle, A: dst, B: c.slotOf(o.Handle)}}, nil
	case *lir.TaskSpawn, *lir.ChannelSend, *lir.ChannelRecv, *lir.Passthrough:
		// Concurrency primitives and passthrough TIR ops have no
		// sandbox-native encoding yet; the guest front end does not
		// reach them today (see internal/lir's escape.go comment on
		// ResolveHandle/TaskSpawn/ChannelSend/ChannelRecv being
		// defined but not yet produced). A Nop keeps slot numbering
		// stable rather than silently dropping an instruction index.
		return []Instr{{Op: OpNop, A: dst}}, nil
	default:
		return nil, fmt.Errorf("sandboxvm: unhandled lir op %T", op)
	}
}

func allocOpcode(k lir.AllocKind) Opcode {
	switch k {
	case lir.AllocList:
		return OpAllocList
	case lir.AllocTuple:
		return OpAllocTuple
	case lir.AllocSet:
		return OpAllocSet
	case lir.AllocMapping:
		return OpAllocMapping
	case lir.AllocRecord:
		return OpAllocRecord
	default:
		return OpAllocList
	}
}
