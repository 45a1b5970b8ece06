package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

func TestRuntimeLockReentrant(t *testing.T) {
	var l RuntimeLock
	l.Acquire()
	l.Acquire()
	if !l.Held() {
		t.Fatalf("expected Held() true")
	}
	l.Release()
	if !l.Held() {
		t.Fatalf("expected still held at depth 1")
	}
	l.Release()
	if l.Held() {
		t.Fatalf("expected released at depth 0")
	}
}

func TestLoopCallSoonFIFO(t *testing.T) {
	loop := NewLoop()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		loop.CallSoon(func() { order = append(order, i) })
	}
	loop.CallSoon(func() { loop.Stop() })
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	loop.Run(ctx)
	for i, v := range order {
		if v != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestLoopCallAtDeadlineOrder(t *testing.T) {
	loop := NewLoop()
	var order []string
	now := time.Now()
	loop.CallAt(now.Add(30*time.Millisecond), func() { order = append(order, "b") })
	loop.CallAt(now.Add(10*time.Millisecond), func() { order = append(order, "a") })
	loop.CallAt(now.Add(50*time.Millisecond), func() { order = append(order, "c"); loop.Stop() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	loop.Run(ctx)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected deadline order a,b,c, got %v", order)
	}
}

func TestCancelTokenPropagatesToChildren(t *testing.T) {
	root := NewCancelToken()
	child := root.Child()
	grandchild := child.Child()
	root.Cancel()
	if !child.Cancelled() || !grandchild.Cancelled() {
		t.Fatalf("expected cancellation to propagate to descendants")
	}
}

func TestCancelTokenChildOfAlreadyCancelled(t *testing.T) {
	root := NewCancelToken()
	root.Cancel()
	child := root.Child()
	if !child.Cancelled() {
		t.Fatalf("expected a child of an already-cancelled token to start cancelled")
	}
}

func TestGroupAggregatesFailures(t *testing.T) {
	loop := NewLoop()
	g := NewGroup(loop, nil)
	g.Go(func(task *Task) *molterr.Error { return nil })
	g.Go(func(task *Task) *molterr.Error {
		return molterr.New(molterr.KindValue, "RT900", "boom")
	})
	loop.CallSoon(func() {}) // keep loop alive briefly
	go func() {
		time.Sleep(20 * time.Millisecond)
		loop.Stop()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	loop.Run(ctx)
	result := g.Wait()
	if result == nil {
		t.Fatalf("expected a group failure")
	}
}

func TestChannelBufferedSendRecv(t *testing.T) {
	ch := NewChannel(2)
	ch.Send(objmodel.FromSmallInt(1))
	ch.Send(objmodel.FromSmallInt(2))
	v1, ok := ch.Recv()
	if !ok || v1.SmallInt() != 1 {
		t.Fatalf("expected FIFO recv of 1, got %v", v1)
	}
	v2, _ := ch.Recv()
	if v2.SmallInt() != 2 {
		t.Fatalf("expected FIFO recv of 2, got %v", v2)
	}
}

func TestChannelRendezvous(t *testing.T) {
	ch := NewChannel(0)
	done := make(chan struct{})
	go func() {
		ch.Send(objmodel.FromSmallInt(42))
		close(done)
	}()
	v, ok := ch.Recv()
	<-done
	if !ok || v.SmallInt() != 42 {
		t.Fatalf("expected rendezvous delivery of 42, got %v ok=%v", v, ok)
	}
}

func TestChannelCloseDrainsBufferThenFails(t *testing.T) {
	ch := NewChannel(1)
	ch.Send(objmodel.FromSmallInt(9))
	ch.Close()
	v, ok := ch.Recv()
	if !ok || v.SmallInt() != 9 {
		t.Fatalf("expected to drain buffered value after close")
	}
	if _, ok := ch.Recv(); ok {
		t.Fatalf("expected ok=false once drained after close")
	}
}

func TestChannelSendOnClosedPanics(t *testing.T) {
	ch := NewChannel(1)
	ch.Close()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic sending on closed channel")
		}
	}()
	ch.Send(objmodel.FromSmallInt(1))
}
