package heap

import "testing"

// fakeList is a minimal Container used to test the cycle collector
// without depending on the real list representation.
type fakeList struct {
	kids []uint32
}

func (f *fakeList) Children() []uint32 { return f.kids }

func TestAllocRetainReleaseFreesAtZero(t *testing.T) {
	h := NewHeap(1)
	idx := h.Alloc(KindStr, "hello", 16)
	if h.table.Get(idx) == nil {
		t.Fatalf("expected object to be allocated")
	}
	h.Retain(idx)
	h.Release(idx)
	if h.table.Get(idx) == nil {
		t.Fatalf("object freed too early after one retain/release pair")
	}
	h.Release(idx)
	if h.table.Get(idx) != nil {
		t.Fatalf("expected object to be freed once refcount reaches zero")
	}
}

func TestFinalizeRunsOnFree(t *testing.T) {
	h := NewHeap(1)
	finalized := false
	idx := h.Alloc(KindBytes, []byte("x"), 8)
	obj := h.table.Get(idx)
	obj.Finalize = func(interface{}) { finalized = true }
	h.Release(idx)
	if !finalized {
		t.Fatalf("expected Finalize to run when refcount reaches zero")
	}
}

func TestPublishUpgradesToSharedCounting(t *testing.T) {
	h := NewHeap(1)
	idx := h.Alloc(KindStr, "x", 8)
	h.Retain(idx) // local count now 2
	h.Publish(idx)
	obj := h.table.Get(idx)
	if obj.bias != biasShared {
		t.Fatalf("expected Publish to upgrade bias to shared")
	}
	if obj.shared.Load() != 2 {
		t.Fatalf("expected shared count to carry over local count, got %d", obj.shared.Load())
	}
	h.Release(idx)
	if h.table.Get(idx) == nil {
		t.Fatalf("object freed too early after publish")
	}
	h.Release(idx)
	if h.table.Get(idx) != nil {
		t.Fatalf("expected object freed once shared count reaches zero")
	}
}

func TestCycleCollectorReclaimsUnreachableCycle(t *testing.T) {
	h := NewHeap(1)
	aIdx := h.Alloc(KindList, nil, 8)
	bIdx := h.Alloc(KindList, nil, 8)
	aObj := h.table.Get(aIdx)
	bObj := h.table.Get(bIdx)
	aObj.Payload = &fakeList{kids: []uint32{bIdx}}
	bObj.Payload = &fakeList{kids: []uint32{aIdx}}
	// Simulate a cycle: each holds one reference to the other, plus a
	// single external root reference to bIdx which we now drop.
	aObj.local = 1 // referenced only by bIdx
	bObj.local = 2 // referenced by aIdx and the external root

	h.Release(bIdx) // drop the external root reference to bIdx
	if h.table.Get(bIdx) == nil {
		t.Fatalf("cyclic object freed immediately instead of queued as a candidate")
	}
	if h.collector.CandidateCount() == 0 {
		t.Fatalf("expected cycle candidate to be queued")
	}
	freed := h.collector.Collect(h)
	if freed == 0 {
		t.Fatalf("expected collector to reclaim the unreachable cycle")
	}
	if h.table.Get(aIdx) != nil || h.table.Get(bIdx) != nil {
		t.Fatalf("expected both cyclic objects to be freed")
	}
}

func TestShutdownFinalizesInAscendingIndexOrder(t *testing.T) {
	h := NewHeap(1)
	var order []int
	for i := 0; i < 3; i++ {
		idx := h.Alloc(KindStr, i, 8)
		obj := h.table.Get(idx)
		capturedIdx := int(idx)
		obj.Finalize = func(interface{}) { order = append(order, capturedIdx) }
	}
	h.Shutdown()
	for i := range order {
		if i > 0 && order[i] < order[i-1] {
			t.Fatalf("expected ascending finalization order, got %v", order)
		}
	}
	if len(order) != 3 {
		t.Fatalf("expected all 3 objects finalized, got %d", len(order))
	}
}

func TestShouldCollectTriggersDeterministically(t *testing.T) {
	h := NewHeap(1)
	if h.collector.ShouldCollect(1<<20, 1<<20) {
		t.Fatalf("did not expect collection to trigger on a fresh heap")
	}
	h.Alloc(KindStr, "x", 100)
	if !h.collector.ShouldCollect(50, 1<<20) {
		t.Fatalf("expected byte threshold to trigger collection")
	}
}
