package heap

// Heap owns an object Table and a cycle collector, and is the entry
// point user code / LIR-generated code calls for retain/release/publish.
// One Heap belongs to one scheduler (internal/scheduler); cross-task
// sharing of values is mediated entirely through Publish, never by
// reaching into another Heap's Table directly.
type Heap struct {
	table     *Table
	collector *Collector
	taskID    int64
}

// NewHeap constructs a Heap for the given owning task ID (spec §4.5
// biased RC: fresh objects are born biased to the task that allocated
// them).
func NewHeap(taskID int64) *Heap {
	t := NewTable()
	return &Heap{table: t, taskID: taskID, collector: NewCollector(t)}
}

// Table exposes the underlying object table (heap-ref Value resolution).
func (h *Heap) Table() *Table { return h.table }

// CandidateCount reports the number of pending cycle candidates queued
// since the last collection pass.
func (h *Heap) CandidateCount() int { return h.collector.CandidateCount() }

// CollectNow runs one trial-deletion cycle-collection pass immediately,
// reclaiming any queued candidate found to be unreachable garbage, and
// returns the number of objects freed (spec §8 scenario 5).
func (h *Heap) CollectNow() int { return h.collector.Collect(h) }

// MaybeCollect runs a collection pass only if the deterministic GC
// trigger (spec §8: a function of allocated-bytes-since-last-GC and
// pending-candidate count, never wall-clock time) has fired.
func (h *Heap) MaybeCollect(byteThreshold uint64, candidateThreshold int) int {
	if !h.collector.ShouldCollect(byteThreshold, candidateThreshold) {
		return 0
	}
	return h.collector.Collect(h)
}

// Alloc creates a new heap object biased to this Heap's owning task and
// returns its slot index.
func (h *Heap) Alloc(kind Kind, payload interface{}, approxSize uint64) uint32 {
	obj := &Object{kind: kind, bias: biasLocal, owner: h.taskID, local: 1, Payload: payload}
	return h.table.Alloc(obj, approxSize)
}

// Retain increments idx's refcount, using the fast non-atomic path while
// the object remains biased to this Heap's task and falling back to the
// atomic path once shared.
func (h *Heap) Retain(idx uint32) {
	obj := h.table.Get(idx)
	if obj == nil {
		return
	}
	if obj.bias == biasLocal && obj.owner == h.taskID {
		obj.local++
		return
	}
	obj.shared.Inc()
}

// Release decrements idx's refcount. When it reaches zero the object is
// finalized and freed; when it reaches a value >0 that could still be
// part of a reference cycle (i.e. the object's Kind may hold outgoing
// references, as reported by Kind.mayCycle) it is queued as a
// cycle candidate instead of being reclaimed immediately (spec §4.5
// "deferred cycle collection via trial-deletion").
func (h *Heap) Release(idx uint32) {
	obj := h.table.Get(idx)
	if obj == nil {
		return
	}
	var remaining int32
	if obj.bias == biasLocal && obj.owner == h.taskID {
		obj.local--
		remaining = obj.local
	} else {
		remaining = obj.shared.Dec()
	}
	if remaining == 0 {
		h.finalizeAndFree(idx, obj)
		return
	}
	if remaining > 0 && obj.kind.mayCycle() {
		h.collector.MarkPurple(idx, obj)
	}
}

func (h *Heap) finalizeAndFree(idx uint32, obj *Object) {
	if obj.Finalize != nil {
		obj.Finalize(obj.Payload)
	}
	h.table.free(idx)
}

// Publish upgrades idx from task-biased to shared atomic refcounting,
// called when a value crosses a task boundary (closures captured by a
// spawned task, values sent over a channel). Publishing is idempotent:
// calling it twice on an already-shared object is a no-op. The refcount
// value itself is carried across the upgrade unchanged.
func (h *Heap) Publish(idx uint32) {
	obj := h.table.Get(idx)
	if obj == nil || obj.bias == biasShared {
		return
	}
	obj.shared.Store(obj.local)
	obj.bias = biasShared
}

// mayCycle reports whether objects of this kind can hold outgoing
// references to other heap objects and therefore participate in
// reference cycles. Immediate scalar payloads (none at this layer; those
// live in objmodel.Value) never reach here, but leaf kinds like Bytes/Str
// carry no outgoing references either.
func (k Kind) mayCycle() bool {
	switch k {
	case KindTuple, KindList, KindMapping, KindSet, KindClass, KindCallable, KindIterator:
		return true
	default:
		return false
	}
}
