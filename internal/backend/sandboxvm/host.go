package sandboxvm

import (
	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/objmodel"
)

// Status is the sandbox host ABI's out-of-band result code (spec §6.2:
// "all host calls use the out-pointer + status-code convention"). Zero
// is success; every other value names a specific, documented failure —
// there is no generic catch-all beyond StatusInternal.
type Status uint32

const (
	StatusOK Status = iota
	StatusInvalidInput
	StatusDecodeError
	StatusEncodeError
	StatusCancelled
	StatusTimeout
	StatusCapabilityDenied
	StatusInternal
)

// Host implements the mandatory and capability-gated host imports a
// sandbox module calls via OpCallHost. Alloc/Free/HandleResolve are
// always available (spec §6.2 "mandatory host imports"). Wall time and
// secure randomness are checked against the Context's granted
// capability set exactly as a native intrinsic call would be (spec
// §4.9), returning StatusCapabilityDenied when not granted. Log and
// monotonic time are not gated; the DB and socket imports have no
// backing implementation and return StatusInternal.
type Host struct {
	Mem     []byte // the guest's linear memory
	Handles *objmodel.Registry
	Caps    *capability.Context

	nextPtr uint32
}

// NewHost constructs a Host backing one module invocation's linear
// memory, registry, and capability context.
func NewHost(memSize uint32, handles *objmodel.Registry, caps *capability.Context) *Host {
	return &Host{Mem: make([]byte, memSize), Handles: handles, Caps: caps, nextPtr: 8}
}

// Alloc reserves size bytes of linear memory and returns their offset.
// A real bump allocator with free-list reuse is future work; today's
// Host never reclaims Free'd ranges, which is sound (if wasteful) for
// the single-invocation lifetime a sandboxed call has.
func (h *Host) Alloc(size uint32) (ptr uint32, status Status) {
	if int(h.nextPtr)+int(size) > len(h.Mem) {
		return 0, StatusInvalidInput
	}
	ptr = h.nextPtr
	h.nextPtr += size
	return ptr, StatusOK
}

// Free releases a previously allocated range. A no-op bump allocator
// cannot reclaim individual ranges; Free only checks that the range lies
// within linear memory, returning StatusInvalidInput for an out-of-range
// free. A double free is not detected and returns StatusOK.
func (h *Host) Free(ptr, size uint32) Status {
	if int(ptr)+int(size) > len(h.Mem) {
		return StatusInvalidInput
	}
	return StatusOK
}

// HandleResolve resolves a handle to guest-visible linear-memory bytes
// describing the underlying object (spec §6.2 "handle_resolve(handle) ->
// ptr — handle lookup within guest memory space"). The host never lets
// the guest dereference a real heap pointer; what crosses the boundary
// here is a copy, matching spec §4.4's "the host never dereferences
// module memory past a call boundary; payloads are copied" (applied in
// the other direction: the guest never gets a raw host pointer either).
func (h *Host) HandleResolve(handleID uint64) (ptr uint32, status Status) {
	v, _, ok := h.Handles.Resolve(objmodel.FromHandleRef(handleID))
	if !ok {
		return 0, StatusInvalidInput
	}
	var buf [8]byte
	u := uint64(v)
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	p, status := h.Alloc(8)
	if status != StatusOK {
		return 0, status
	}
	copy(h.Mem[p:p+8], buf[:])
	return p, StatusOK
}

// requireCapability gates one of the optional host imports. A denied
// call returns StatusCapabilityDenied and performs the import's side
// effect not at all — spec §8 scenario 6: "the call returns status 6
// ... without side effects."
func (h *Host) requireCapability(b capability.Bit) Status {
	if h.Caps.Has(b) {
		return StatusOK
	}
	return StatusCapabilityDenied
}

// CallHost dispatches one OpCallHost instruction. args are guest slot
// values already resolved by the VM; the single return slot value and a
// Status are handed back for the VM to store and branch on.
func (h *Host) CallHost(imp HostImport, args []uint64) (result uint64, status Status) {
	switch imp {
	case HostAlloc:
		if len(args) != 1 {
			return 0, StatusInvalidInput
		}
		p, st := h.Alloc(uint32(args[0]))
		return uint64(p), st
	case HostFree:
		if len(args) != 2 {
			return 0, StatusInvalidInput
		}
		return 0, h.Free(uint32(args[0]), uint32(args[1]))
	case HostHandleResolve:
		if len(args) != 1 {
			return 0, StatusInvalidInput
		}
		p, st := h.HandleResolve(args[0])
		return uint64(p), st
	case HostMonotonicTime:
		// Monotonic time carries no capability requirement (spec §4.8
		// lists it alongside performance counters as always available;
		// only wall time is capability-gated).
		return uint64(monotonicNanos()), StatusOK
	case HostWallTime:
		if st := h.requireCapability(capability.TimeWall); st != StatusOK {
			return 0, st
		}
		return uint64(wallNanos()), StatusOK
	case HostSecureRandom:
		if st := h.requireCapability(capability.SecureRandom); st != StatusOK {
			return 0, st
		}
		return secureRandomU64(), StatusOK
	case HostLog:
		// Logging has no dedicated capability bit in spec §4.9's list;
		// it is treated as always permitted (diagnostic output, not a
		// state- or resource-affecting host call), consistent with
		// spec §10.1's ambient logging never affecting determinism.
		return 0, StatusOK
	case HostDBQuery, HostDBExec, HostSocketWait:
		// Database and socket host calls are domain libraries built on
		// the runtime (spec §1 "out of scope"); the host surface
		// exists (HostImport identifiers are reserved) but no in-core
		// backing implementation is provided. A module that imports
		// one gets StatusInternal rather than a silent stub success.
		return 0, StatusInternal
	default:
		return 0, StatusInternal
	}
}
