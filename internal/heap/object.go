// Package heap implements the Molt object heap: a reference-counted
// object table with biased (thread-local) counts that upgrade to shared
// atomic counts on publication, plus a deferred cycle collector (spec
// §4.5/§8).
//
// Grounded on the teacher's capability-bitmap-under-lock discipline
// (internal/effects.Context, now internal/capability.Context) for the
// "single owning lock protects a flat table" shape, generalized here to
// an object table instead of a capability bitmap. Reference counting and
// cycle collection themselves have no analog in the teacher (a
// tree-walking interpreter backed by Go's own GC); this package is
// grounded on established tri-color/trial-deletion cycle collection
// technique rather than a specific corpus file, and stays stdlib +
// go.uber.org/atomic (already a teacher/pack dependency for atomic
// counters) since no example repo ships a GC.
package heap

import (
	"sync"

	"go.uber.org/atomic"
)

// Kind is the heap object's runtime type tag, mirroring the composite
// (non-immediate) members of the spec §3 type lattice.
type Kind uint8

const (
	KindBytes Kind = iota
	KindStr
	KindTuple
	KindList
	KindMapping
	KindSet
	KindClass
	KindCallable
	KindBigInt
	KindIterator
	KindFile
	KindChannel
)

// biasState distinguishes an object still owned by the allocating task
// (fast, non-atomic increments) from one that has been published across
// task boundaries and must use atomic increments (spec §4.5 "biased/
// thread-local RC upgrading to atomic/shared RC on publication").
type biasState uint8

const (
	biasLocal biasState = iota
	biasShared
)

// Object is a heap-allocated composite value's header plus payload.
// Payload is an opaque interface{} slot because each Kind's concrete
// representation lives in the package that constructs it (e.g. lists,
// mappings); Object itself only owns identity, typing, and lifetime.
type Object struct {
	kind    Kind
	bias    biasState
	owner   int64 // task ID that allocated this object, valid while bias==biasLocal
	local   int32 // non-atomic refcount while bias==biasLocal
	shared  atomic.Int32
	color   Color // tri-color cycle-collector mark, spec §4.5
	buffered bool  // already queued as a cycle candidate
	Payload interface{}
	Finalize func(interface{}) // optional native resource release, spec §8 "finalizer ordering"
}

// Kind reports the object's runtime type tag.
func (o *Object) Kind() Kind {
	return o.kind
}

// Color is the tri-color cycle collector's mark state.
type Color uint8

const (
	ColorBlack Color = iota // in use, scanned, not a cycle candidate
	ColorGray               // in the trial-deleted subgraph, awaiting scan
	ColorWhite              // judged unreachable by scan, freed by collectWhite
	ColorPurple             // possible root of a cycle, awaiting processing
)

// Table is the heap's flat object store: Value.HeapIndex() slots index
// directly into it. A single mutex guards slot allocation and growth;
// refcount mutation on individual objects uses the biased/atomic scheme
// in rc.go and does not need the table lock once a slot exists.
type Table struct {
	mu      sync.Mutex
	objects []*Object
	freeList []uint32
	allocatedBytesSinceGC uint64
}

// NewTable constructs an empty object table.
func NewTable() *Table {
	return &Table{}
}

// Alloc inserts obj into the table and returns its slot index. approxSize
// is added to the deterministic GC trigger's byte counter (spec §8 "GC
// triggers are deterministic: driven by allocated bytes and cycle
// candidate counts, never wall-clock").
func (t *Table) Alloc(obj *Object, approxSize uint64) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allocatedBytesSinceGC += approxSize
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.objects[idx] = obj
		return idx
	}
	idx := uint32(len(t.objects))
	t.objects = append(t.objects, obj)
	return idx
}

// Get returns the object at idx, or nil if the slot has been freed.
func (t *Table) Get(idx uint32) *Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(idx) >= len(t.objects) {
		return nil
	}
	return t.objects[idx]
}

// free releases idx back to the free list and clears its slot. Called
// only once an object's refcount has dropped to zero.
func (t *Table) free(idx uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(idx) >= len(t.objects) {
		return
	}
	t.objects[idx] = nil
	t.freeList = append(t.freeList, idx)
}

// AllocatedBytesSinceGC reports the deterministic byte counter used by
// gc.go's collection trigger.
func (t *Table) AllocatedBytesSinceGC() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allocatedBytesSinceGC
}

// ResetByteCounter zeroes the allocation counter after a collection pass.
func (t *Table) ResetByteCounter() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allocatedBytesSinceGC = 0
}

// Len reports the number of live (non-freed) slots. For tests/diagnostics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, o := range t.objects {
		if o != nil {
			n++
		}
	}
	return n
}
