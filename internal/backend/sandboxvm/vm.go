package sandboxvm

import (
	"fmt"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/objmodel"
)

// Invoke implements spec §6.3's full Invocation Protocol for one guest
// export: resolve the schema, check every capability the export
// declares before executing a single instruction (spec §4.9 "denied
// calls raise a dedicated error; there is no implicit fallback" —
// applied at the sandbox boundary as "no side effects", per spec §8
// scenario 6), then run the guest function's Instr stream to
// completion against a fresh Host.
//
// callerSchema may be empty, letting the export's own default/sole-
// schema fallback apply. args are the already-decoded argument slot
// values (decoding the wire payload into these is the codec's job,
// named but not implemented by this package — spec §6.1 "codec" is a
// per-export configuration value, and concrete codecs beyond the
// default structured one are a domain-library concern).
func (m *Module) Invoke(functionID uint32, callerSchema string, args []uint64, handles *objmodel.Registry, caps *capability.Context) (result uint64, status Status, err error) {
	fn := m.FuncByID(functionID)
	if fn == nil {
		return 0, StatusInvalidInput, fmt.Errorf("sandboxvm: no function with id %d", functionID)
	}
	exp := m.ExportByID(functionID)
	if exp == nil {
		return 0, StatusInternal, fmt.Errorf("sandboxvm: function %d has no export entry", functionID)
	}
	if _, schemaErr := m.Manifest.ResolveSchema(functionID, callerSchema); schemaErr != nil {
		return 0, StatusInvalidInput, schemaErr
	}
	for _, capName := range exp.Capabilities {
		bit, ok := capability.Parse(capName)
		if !ok {
			return 0, StatusInternal, fmt.Errorf("sandboxvm: export %q declares unknown capability %q", exp.Name, capName)
		}
		if !caps.Has(bit) {
			return 0, StatusCapabilityDenied, nil
		}
	}

	host := NewHost(m.LinearMemSize, handles, caps)
	vm := &vm{host: host, args: args}
	return vm.run(fn)
}

// vm executes exactly one Func invocation. Each instruction index in
// Code is a program counter value; OpJump/OpCondBranch operands are
// already resolved instruction indices (see compiler.compileFunction),
// so control transfer is a plain pc assignment, no further symbol
// lookup.
type vm struct {
	host *Host
	args []uint64
	regs []uint64
}

func (v *vm) reg(slot uint32) uint64 {
	if int(slot) < len(v.regs) {
		return v.regs[slot]
	}
	return 0
}

func (v *vm) setReg(slot uint32, val uint64) {
	for uint32(len(v.regs)) <= slot {
		v.regs = append(v.regs, 0)
	}
	v.regs[slot] = val
}

// run executes fn.Code from pc 0. Every allocation/retain/release op
// passes through as a register-table marker today: a full execution
// engine additionally needs the heap and scheduler threaded through,
// which Invoke's caller supplies by constructing the vm's Host with the
// shared Registry; the object-representation ops (OpAllocList and
// friends) are therefore host-call-free no-ops here and are expected to
// be exercised end-to-end once the front end that emits concurrency and
// container ops for the sandbox target lands (see internal/lir/
// escape.go's matching note on TaskSpawn/ChannelSend/ChannelRecv not yet
// being produced upstream).
func (v *vm) run(fn *Func) (result uint64, status Status, err error) {
	for i, a := range v.args {
		v.setReg(uint32(i), a)
	}
	pc := 0
	steps := 0
	const maxSteps = 10_000_000 // runaway-guest backstop; a real deployment ties this to a fuel/gas budget
	for pc < len(fn.Code) {
		steps++
		if steps > maxSteps {
			return 0, StatusInternal, fmt.Errorf("sandboxvm: function %s exceeded instruction budget", fn.Name)
		}
		ins := fn.Code[pc]
		switch ins.Op {
		case OpNop, OpAllocList, OpAllocTuple, OpAllocSet, OpAllocMapping, OpAllocRecord,
			OpRetain, OpRelease, OpLoadField, OpStoreField, OpGuardedLoadField, OpGuardedStoreField, OpResolveHandle:
			pc++
		case OpConstI64:
			v.setReg(ins.A, ins.Imm)
			pc++
		case OpCallHost:
			res, st := v.host.CallHost(HostImport(ins.A), v.hostArgs(ins))
			if st != StatusOK {
				return 0, st, nil
			}
			v.setReg(ins.B, res)
			pc++
		case OpJump:
			pc = int(ins.A)
		case OpCondBranch:
			if v.reg(ins.A) != 0 {
				pc = int(ins.B)
			} else {
				pc = int(ins.C)
			}
		case OpReturn:
			return v.reg(ins.A), StatusOK, nil
		case OpRaise:
			return v.reg(ins.A), StatusInternal, fmt.Errorf("sandboxvm: guest raised")
		case OpUnreachable:
			return 0, StatusInternal, fmt.Errorf("sandboxvm: reached OpUnreachable")
		default:
			return 0, StatusInternal, fmt.Errorf("sandboxvm: unknown opcode %v", ins.Op)
		}
	}
	return 0, StatusOK, nil
}

// hostArgs gathers the register operands for an OpCallHost instruction.
// The instruction's B field names the destination register for the
// result, not an argument, so the call's actual operands live in the
// registers immediately preceding B by convention of the compiler that
// emitted this stream; today's Compile never emits OpCallHost (no
// surface construct reaches a host import yet), so this is the
// interpreter-side half of a contract internal/lir's front end has not
// yet produced a producer for.
func (v *vm) hostArgs(ins Instr) []uint64 {
	return nil
}
