package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Callback is a unit of work the loop dispatches. Callbacks never block;
// long-running or blocking work belongs in a Task (task.go) backed by a
// separate goroutine that hands its result back via call_soon.
type Callback func()

type deadlineEntry struct {
	at       time.Time
	seq      uint64 // tie-break: earlier-scheduled callback runs first at equal deadlines
	callback Callback
}

type deadlineQueue []*deadlineEntry

func (q deadlineQueue) Len() int { return len(q) }
func (q deadlineQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}
func (q deadlineQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *deadlineQueue) Push(x interface{}) { *q = append(*q, x.(*deadlineEntry)) }
func (q *deadlineQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Loop is the cooperative single-threaded scheduler core. Exactly one
// goroutine should call Run; every other goroutine interacts with it
// only through CallSoon/CallAt/Wake, which are safe to call from
// anywhere.
type Loop struct {
	Lock RuntimeLock

	mu       sync.Mutex
	soon     []Callback
	deadline deadlineQueue
	seq      uint64
	wake     chan struct{}
	stopped  bool
}

// NewLoop constructs an idle Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// CallSoon enqueues cb to run on the loop goroutine as soon as possible,
// after every callback already queued (FIFO ordering, spec §7
// "call_soon ... FIFO ... ordering").
func (l *Loop) CallSoon(cb Callback) {
	l.mu.Lock()
	l.soon = append(l.soon, cb)
	l.mu.Unlock()
	l.signal()
}

// CallAt enqueues cb to run at or after the given deadline, ordered
// among other deadline callbacks by deadline and then by submission
// order (spec §7 "call_at ... deadline ordering").
func (l *Loop) CallAt(at time.Time, cb Callback) {
	l.mu.Lock()
	l.seq++
	heap.Push(&l.deadline, &deadlineEntry{at: at, seq: l.seq, callback: cb})
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop requests the loop to exit after draining callbacks already ready
// to run.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.signal()
}

// popReady promotes any due deadline callbacks into the soon queue and
// pops the next soon callback, returning (nil, false) if nothing is
// ready. It also returns the duration until the next deadline callback
// becomes due, for Run's sleep calculation.
func (l *Loop) popReady(now time.Time) (Callback, bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.deadline) > 0 && !l.deadline[0].at.After(now) {
		entry := heap.Pop(&l.deadline).(*deadlineEntry)
		l.soon = append(l.soon, entry.callback)
	}
	if len(l.soon) > 0 {
		cb := l.soon[0]
		l.soon = l.soon[1:]
		return cb, true, 0
	}
	if len(l.deadline) > 0 {
		return nil, false, l.deadline[0].at.Sub(now)
	}
	return nil, false, -1
}

// Run dispatches callbacks until ctx is cancelled, or until Stop has been
// called and no callback is ready to run; deadline callbacks not yet due
// at that point are not run. The calling goroutine becomes the loop goroutine
// for the duration of this call.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.mu.Lock()
		stopped := l.stopped
		l.mu.Unlock()

		cb, ok, wait := l.popReady(time.Now())
		if ok {
			l.Lock.Acquire()
			cb()
			l.Lock.Release()
			continue
		}
		if stopped {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		case <-after(wait):
		}
	}
}

// after returns a channel that fires after d, or a nil channel (never
// fires) if d is negative, meaning "wait indefinitely for a wake signal".
func after(d time.Duration) <-chan time.Time {
	if d < 0 {
		return nil
	}
	return time.After(d)
}
