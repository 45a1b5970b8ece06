package scheduler

import (
	"container/list"
	"sync"

	"github.com/adpena/molt/internal/objmodel"
)

// Channel is a bounded multi-producer multi-consumer queue with explicit
// backpressure (spec §7 "bounded MPMC channels with backpressure"). A
// plain Go `chan` gives no ordering guarantee among multiple blocked
// senders/receivers once woken; Channel instead keeps its own FIFO
// waiter queues so that, under contention, the sender that blocked first
// is the one unblocked first, matching the deterministic scheduling the
// rest of the runtime guarantees. Capacity 0 is a synchronous rendezvous
// channel: values are handed directly from a blocked Send to a blocked
// Recv without ever touching a buffer.
type Channel struct {
	mu       sync.Mutex
	capacity int
	buf      []objmodel.Value
	closed   bool

	waitingSenders   *list.List // of *senderWait
	waitingReceivers *list.List // of chan objmodel.Value
}

type senderWait struct {
	value objmodel.Value
	ack   chan struct{}
}

// NewChannel creates a Channel with the given buffer capacity.
func NewChannel(capacity int) *Channel {
	return &Channel{
		capacity:         capacity,
		waitingSenders:   list.New(),
		waitingReceivers: list.New(),
	}
}

// Send enqueues v, blocking while the buffer is full (or, for a
// capacity-0 channel, until a receiver is ready) until room or a
// receiver becomes available. Sending on a closed channel panics,
// matching the standard library channel's own convention.
func (c *Channel) Send(v objmodel.Value) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		panic("scheduler: send on closed Channel")
	}
	if e := c.waitingReceivers.Front(); e != nil {
		c.waitingReceivers.Remove(e)
		rc := e.Value.(chan objmodel.Value)
		c.mu.Unlock()
		rc <- v
		return
	}
	if len(c.buf) < c.capacity {
		c.buf = append(c.buf, v)
		c.mu.Unlock()
		return
	}
	wait := &senderWait{value: v, ack: make(chan struct{})}
	c.waitingSenders.PushBack(wait)
	c.mu.Unlock()
	<-wait.ack
}

// Recv dequeues the next value in FIFO order, blocking until one is
// available or the channel is closed and drained (ok reports false in
// that case, matching `v, ok := <-ch`).
func (c *Channel) Recv() (objmodel.Value, bool) {
	c.mu.Lock()
	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		c.admitOneSender()
		c.mu.Unlock()
		return v, true
	}
	if e := c.waitingSenders.Front(); e != nil {
		c.waitingSenders.Remove(e)
		sw := e.Value.(*senderWait)
		c.mu.Unlock()
		close(sw.ack)
		return sw.value, true
	}
	if c.closed {
		c.mu.Unlock()
		return objmodel.Value(0), false
	}
	rc := make(chan objmodel.Value)
	c.waitingReceivers.PushBack(rc)
	c.mu.Unlock()
	v, ok := <-rc
	return v, ok
}

// admitOneSender moves the longest-waiting parked sender's value into
// the now-available buffer slot, called with c.mu held.
func (c *Channel) admitOneSender() {
	e := c.waitingSenders.Front()
	if e == nil {
		return
	}
	c.waitingSenders.Remove(e)
	sw := e.Value.(*senderWait)
	c.buf = append(c.buf, sw.value)
	close(sw.ack)
}

// Close marks the channel closed. Already-buffered values remain
// receivable; Recv reports ok=false only once the buffer is drained and
// no sender remains parked.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for e := c.waitingReceivers.Front(); e != nil; e = e.Next() {
		close(e.Value.(chan objmodel.Value))
	}
	c.waitingReceivers.Init()
}

// Len reports the number of buffered values. For diagnostics/tests.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}
