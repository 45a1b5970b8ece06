// Package sandboxvm implements the second of spec §4.4's two backends:
// the portable sandbox module emitter and its guest-side execution
// engine. A module is a flat table of fixed-width instructions per
// exported function plus a linear-memory byte slice; host functions
// (the runtime ABI of spec §6.2) are the only way a module observes or
// affects anything outside that memory.
//
// Grounded on the corpus's only real bytecode-machine sources: wazero's
// internal/engine/wazevo/backend/isa (arm64 and amd64) instruction
// encoders, which represent each instruction as a small fixed-width
// struct carrying an opcode tag plus a couple of untyped operand words,
// walked by an explicit big-switch encoder rather than a generic
// visitor. sandboxvm.Instr follows that same fixed-width-struct-plus-
// opcode-switch shape, sized for Molt's own op set instead of a real
// CPU ISA.
package sandboxvm

// Opcode identifies one sandbox-module instruction. The set mirrors
// internal/lir's explicit-ownership op vocabulary (spec §4.3) plus the
// handful of ops a guest needs to drive the host ABI of spec §6.2.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpConstI64
	OpConstF64
	OpAllocList
	OpAllocTuple
	OpAllocSet
	OpAllocMapping
	OpAllocRecord
	OpRetain
	OpRelease
	OpLoadField
	OpStoreField
	OpGuardedLoadField
	OpGuardedStoreField
	OpResolveHandle
	OpCallHost // host import call: A selects the import, B is the result register
	OpJump
	OpCondBranch
	OpReturn
	OpRaise
	OpUnreachable
)

var opNames = map[Opcode]string{
	OpNop:               "nop",
	OpConstI64:          "const.i64",
	OpConstF64:          "const.f64",
	OpAllocList:         "alloc.list",
	OpAllocTuple:        "alloc.tuple",
	OpAllocSet:          "alloc.set",
	OpAllocMapping:      "alloc.mapping",
	OpAllocRecord:       "alloc.record",
	OpRetain:            "retain",
	OpRelease:           "release",
	OpLoadField:         "load.field",
	OpStoreField:        "store.field",
	OpGuardedLoadField:  "guarded.load.field",
	OpGuardedStoreField: "guarded.store.field",
	OpResolveHandle:     "resolve.handle",
	OpCallHost:          "call.host",
	OpJump:              "jump",
	OpCondBranch:        "cond.branch",
	OpReturn:            "return",
	OpRaise:             "raise",
	OpUnreachable:       "unreachable",
}

// String implements fmt.Stringer for diagnostics and deterministic
// textual dumps (tests compare disassembly instead of raw bytes where
// that's more legible).
func (op Opcode) String() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "unknown"
}

// HostImport identifies a host-side ABI function a module can call via
// OpCallHost (spec §6.2). Mandatory imports (Alloc, Free, HandleResolve)
// have no capability requirement. Of the optional imports, HostWallTime
// and HostSecureRandom are rejected by the host unless the invocation's
// capability context grants the matching capability (spec §4.9);
// HostLog and HostMonotonicTime are not gated, and the DB and socket
// imports are not implemented by Host.
type HostImport uint8

const (
	HostAlloc HostImport = iota
	HostFree
	HostHandleResolve
	HostLog
	HostMonotonicTime
	HostWallTime
	HostSecureRandom
	HostDBQuery
	HostDBExec
	HostSocketWait
)

var hostImportNames = map[HostImport]string{
	HostAlloc:         "alloc",
	HostFree:          "free",
	HostHandleResolve: "handle_resolve",
	HostLog:           "log",
	HostMonotonicTime: "time.monotonic",
	HostWallTime:      "time.wall",
	HostSecureRandom:  "random.secure",
	HostDBQuery:       "db.query",
	HostDBExec:        "db.exec",
	HostSocketWait:    "socket.wait",
}

func (h HostImport) String() string {
	if n, ok := hostImportNames[h]; ok {
		return n
	}
	return "unknown"
}

// Instr is one fixed-width sandbox-module instruction. A, B, and C are
// interpreted per Op: register/slot indices for data ops, block targets
// for control ops, or a HostImport selector (A) plus result register (B)
// for OpCallHost. Imm carries a constant operand for OpConstI64/OpConstF64
// (bit-punned for the float case).
type Instr struct {
	Op   Opcode
	A, B, C uint32
	Imm  uint64
}
