package heap

// Container is implemented by composite Payload types (lists, tuples,
// mappings, sets, class instances, closures) so the cycle collector can
// walk outgoing heap references without knowing each container's
// concrete shape.
type Container interface {
	// Children returns the heap-table indices this object directly
	// references. Implementations must return a stable snapshot; the
	// collector never mutates the container through this call.
	Children() []uint32
}

// Collector implements deferred cycle collection over Table by
// trial-deletion / tri-color marking (spec §4.5, §8): objects whose
// refcount drops but does not reach zero are suspected ("purple") cycle
// roots; a collection pass speculatively decrements their subgraph
// ("gray"), checks whether anything outside the subgraph still holds a
// reference ("black" if so, recovering the count), and reclaims whatever
// remains unreachable ("white").
type Collector struct {
	table      *Table
	candidates []uint32
	inQueue    map[uint32]bool
}

// NewCollector constructs a Collector over table.
func NewCollector(table *Table) *Collector {
	return &Collector{table: table, inQueue: make(map[uint32]bool)}
}

// MarkPurple enqueues idx as a cycle candidate if it is not already
// queued.
func (c *Collector) MarkPurple(idx uint32, obj *Object) {
	if c.inQueue[idx] {
		return
	}
	obj.color = ColorPurple
	obj.buffered = true
	c.inQueue[idx] = true
	c.candidates = append(c.candidates, idx)
}

// CandidateCount reports the number of pending cycle candidates, one
// half of the deterministic GC trigger alongside Table's byte counter
// (spec §8 "driven by allocated bytes and cycle candidate counts, never
// wall-clock").
func (c *Collector) CandidateCount() int {
	return len(c.candidates)
}

// currentRefCount reads an object's live refcount regardless of bias
// state.
func currentRefCount(obj *Object) int32 {
	if obj.bias == biasLocal {
		return obj.local
	}
	return obj.shared.Load()
}

func children(obj *Object) []uint32 {
	if c, ok := obj.Payload.(Container); ok {
		return c.Children()
	}
	return nil
}

// Collect runs one full trial-deletion pass over all queued candidates
// and reclaims any object found to be garbage (part of an unreachable
// cycle), returning the number of objects freed. Candidates that survive
// (still externally reachable) are restored to black and removed from
// the queue; this never frees an object that is still reachable from a
// live root outside the candidate set.
func (c *Collector) Collect(h *Heap) int {
	roots := c.candidates
	c.candidates = nil
	c.inQueue = make(map[uint32]bool)

	// Phase 1: mark gray, speculatively decrement child counts reachable
	// only through candidate edges.
	visited := make(map[uint32]bool)
	for _, idx := range roots {
		c.markGray(idx, visited)
	}

	// Phase 2: scan — any object whose count is still >0 after the
	// speculative decrement has an external reference and is restored.
	scanned := make(map[uint32]bool)
	for _, idx := range roots {
		c.scan(idx, scanned)
	}

	// Phase 3: collect white objects unreachable from anything black.
	freed := 0
	collected := make(map[uint32]bool)
	for _, idx := range roots {
		freed += c.collectWhite(idx, collected, h)
	}
	c.table.ResetByteCounter()
	return freed
}

func (c *Collector) markGray(idx uint32, visited map[uint32]bool) {
	if visited[idx] {
		return
	}
	visited[idx] = true
	obj := c.table.Get(idx)
	if obj == nil {
		return
	}
	if obj.color == ColorGray {
		return
	}
	obj.color = ColorGray
	for _, child := range children(obj) {
		co := c.table.Get(child)
		if co == nil {
			continue
		}
		if co.bias == biasLocal {
			co.local--
		} else {
			co.shared.Dec()
		}
		c.markGray(child, visited)
	}
}

func (c *Collector) scan(idx uint32, scanned map[uint32]bool) {
	if scanned[idx] {
		return
	}
	scanned[idx] = true
	obj := c.table.Get(idx)
	if obj == nil {
		return
	}
	if obj.color != ColorGray {
		return
	}
	if currentRefCount(obj) > 0 {
		c.scanBlack(idx, scanned)
		return
	}
	obj.color = ColorWhite
	for _, child := range children(obj) {
		c.scan(child, scanned)
	}
}

func (c *Collector) scanBlack(idx uint32, scanned map[uint32]bool) {
	obj := c.table.Get(idx)
	if obj == nil || obj.color == ColorBlack {
		return
	}
	obj.color = ColorBlack
	for _, child := range children(obj) {
		co := c.table.Get(child)
		if co == nil {
			continue
		}
		if co.bias == biasLocal {
			co.local++
		} else {
			co.shared.Inc()
		}
		if co.color != ColorBlack {
			c.scanBlack(child, scanned)
		}
	}
}

func (c *Collector) collectWhite(idx uint32, collected map[uint32]bool, h *Heap) int {
	if collected[idx] {
		return 0
	}
	collected[idx] = true
	obj := c.table.Get(idx)
	if obj == nil || obj.color != ColorWhite {
		return 0
	}
	obj.color = ColorBlack
	obj.buffered = false
	freed := 1
	kids := children(obj)
	h.finalizeAndFree(idx, obj)
	for _, child := range kids {
		freed += c.collectWhite(child, collected, h)
	}
	return freed
}

// ShouldCollect reports whether the deterministic GC trigger has fired:
// either the allocated-bytes-since-last-GC counter or the pending
// candidate count has crossed its threshold (spec §8). Both thresholds
// are function-of-state, never of elapsed wall-clock time, so two runs
// over identical input trigger collection at identical points.
func (c *Collector) ShouldCollect(byteThreshold uint64, candidateThreshold int) bool {
	return c.table.AllocatedBytesSinceGC() >= byteThreshold || len(c.candidates) >= candidateThreshold
}
