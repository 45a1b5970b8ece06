package intrinsics

import (
	"testing"

	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/objmodel"
)

// TestListPayloadChildrenExposesHeapRefs guards the filtering rule the
// cycle collector depends on: only heap-ref elements are reported, plain
// scalars are not mistaken for outgoing references.
func TestListPayloadChildrenExposesHeapRefs(t *testing.T) {
	p := &ListPayload{Elems: []objmodel.Value{
		objmodel.FromSmallInt(1),
		objmodel.FromHeapRef(7),
		objmodel.Null,
		objmodel.FromHeapRef(9),
	}}
	children := p.Children()
	if len(children) != 2 || children[0] != 7 || children[1] != 9 {
		t.Fatalf("expected Children() to report [7 9], got %v", children)
	}
}

// TestSelfReferentialListCycleIsReclaimed builds a real a = []; a.append(a)
// cycle out of the runtime's own ListPayload (not heap_test.go's synthetic
// fakeList) and drives it through the cycle collector end to end, proving
// spec §8 scenario 5: dropping the only external reference to a
// self-referential list reclaims it in one collection pass.
func TestSelfReferentialListCycleIsReclaimed(t *testing.T) {
	h := heap.NewHeap(1)
	idx := h.Alloc(heap.KindList, &ListPayload{}, 8)

	list := h.Table().Get(idx).Payload.(*ListPayload)
	list.Elems = append(list.Elems, objmodel.FromHeapRef(idx))
	h.Retain(idx) // the list's own self-append now holds a second reference

	h.Release(idx) // drop the external root; only the self-reference remains
	if h.Table().Get(idx) == nil {
		t.Fatalf("cyclic list freed immediately instead of queued as a candidate")
	}
	if h.CandidateCount() == 0 {
		t.Fatalf("expected self-referential list to be queued as a cycle candidate")
	}

	freed := h.CollectNow()
	if freed == 0 {
		t.Fatalf("expected collector to reclaim the unreachable self-cycle")
	}
	if h.Table().Get(idx) != nil {
		t.Fatalf("expected self-referential list to be freed after collection")
	}
}

// TestMappingCycleAcrossTwoObjectsIsReclaimed covers the multi-object form
// of the same scenario: two real MappingPayload objects referencing each
// other through map values, with the only external reference dropped.
func TestMappingCycleAcrossTwoObjectsIsReclaimed(t *testing.T) {
	h := heap.NewHeap(1)
	aIdx := h.Alloc(heap.KindMapping, &MappingPayload{Items: map[objmodel.Value]objmodel.Value{}}, 8)
	bIdx := h.Alloc(heap.KindMapping, &MappingPayload{Items: map[objmodel.Value]objmodel.Value{}}, 8)

	aKey := objmodel.FromSmallInt(1)
	bKey := objmodel.FromSmallInt(2)
	a := h.Table().Get(aIdx).Payload.(*MappingPayload)
	b := h.Table().Get(bIdx).Payload.(*MappingPayload)
	a.Order = append(a.Order, bKey)
	a.Items[bKey] = objmodel.FromHeapRef(bIdx)
	h.Retain(bIdx) // a's entry is now a second reference to b
	b.Order = append(b.Order, aKey)
	b.Items[aKey] = objmodel.FromHeapRef(aIdx)
	h.Retain(aIdx) // b's entry is now a second reference to a

	h.Release(aIdx) // drop the external root on aIdx; b's entry still refs it
	if h.Table().Get(aIdx) == nil {
		t.Fatalf("cyclic mapping freed immediately instead of queued as a candidate")
	}
	h.Release(bIdx) // drop the external root on bIdx; a's entry still refs it
	if h.Table().Get(bIdx) == nil {
		t.Fatalf("cyclic mapping freed immediately instead of queued as a candidate")
	}
	if h.CandidateCount() == 0 {
		t.Fatalf("expected mapping cycle to be queued as a cycle candidate")
	}

	freed := h.CollectNow()
	if freed == 0 {
		t.Fatalf("expected collector to reclaim the unreachable mapping cycle")
	}
	if h.Table().Get(aIdx) != nil || h.Table().Get(bIdx) != nil {
		t.Fatalf("expected both cyclic mappings to be freed")
	}
}
