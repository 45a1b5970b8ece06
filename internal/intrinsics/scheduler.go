package intrinsics

import (
	"time"

	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
	"github.com/adpena/molt/internal/scheduler"
)

func init() {
	registerSchedulerOps()
	registerChannelOps()
}

func registerSchedulerOps() {
	// task.spawn schedules a 0-argument Callable as a child task and
	// returns a handle to it (spec §4.8 "scheduler operations (spawn,
	// sleep, current task, cancel)"). The Callable itself is invoked by
	// the backend's call convention, which this package doesn't own;
	// Impl only takes the already-produced entry thunk.
	Register(&Spec{Name: "task.spawn", NumArgs: 1, Effect: MaySuspend, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		entry, err := callableOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		var parent *scheduler.CancelToken
		if ctx.Task != nil {
			parent = ctx.Task.Cancel
		}
		t := scheduler.Spawn(ctx.Loop, parent, func(task *scheduler.Task) {
			result, rerr := entry(ctx)
			if rerr != nil {
				task.Fail(rerr)
				return
			}
			task.Succeed(result)
		})
		return ctx.Handles.Alloc(objmodel.HandleTask, objmodel.FromSmallInt(t.ID)), nil
	}})

	Register(&Spec{Name: "task.current", NumArgs: 0, Effect: Pure, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		if ctx.Task == nil {
			return objmodel.Null, nil
		}
		return ctx.Handles.Alloc(objmodel.HandleTask, objmodel.FromSmallInt(ctx.Task.ID)), nil
	}})

	Register(&Spec{Name: "task.cancel", NumArgs: 1, Effect: WritesState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		if ctx.Task == nil {
			return 0, molterr.New(molterr.KindInternal, molterr.RTInternal, "task.cancel called outside a task")
		}
		ctx.Task.Cancel.Cancel()
		return objmodel.Null, nil
	}})

	// task.sleep is a may-suspend intrinsic backed by the Loop's
	// deadline queue (spec §5 "Suspension may happen only at ... timer
	// sleeps"); it blocks the calling goroutine on a channel the
	// scheduled callback closes, rather than the loop goroutine itself,
	// matching the rest of this runtime's cooperative-but-Go-goroutine-
	// backed task model.
	Register(&Spec{Name: "task.sleep", NumArgs: 1, Effect: MaySuspend, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		seconds := toFloat(args[0])
		done := make(chan struct{})
		ctx.Loop.CallAt(time.Now().Add(time.Duration(seconds*float64(time.Second))), func() {
			close(done)
		})
		<-done
		return objmodel.Null, nil
	}})
}

func callableOf(ctx *Context, v objmodel.Value) (func(*Context) (interface{}, *molterr.Error), *molterr.Error) {
	if !v.IsHeapRef() {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "expected a Callable, got %s", v.TypeName())
	}
	obj := ctx.Heap.Table().Get(v.HeapIndex())
	if obj == nil {
		return nil, molterr.New(molterr.KindInternal, molterr.RTInternal, "dangling heap reference")
	}
	fn, ok := obj.Payload.(func(*Context) (interface{}, *molterr.Error))
	if !ok {
		return nil, molterr.New(molterr.KindType, molterr.TIRTypeMismatch, "value is not callable")
	}
	return fn, nil
}

func registerChannelOps() {
	Register(&Spec{Name: "channel.new", NumArgs: 1, Effect: WritesState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		capacity := int(args[0].SmallInt())
		ch := scheduler.NewChannel(capacity)
		idx := ctx.Heap.Alloc(heap.KindChannel, ch, 64)
		return objmodel.FromHeapRef(idx), nil
	}})

	Register(&Spec{Name: "channel.send", NumArgs: 2, Effect: MaySuspend, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		ch, err := channelOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		ch.Send(args[1])
		return objmodel.Null, nil
	}})

	Register(&Spec{Name: "channel.recv", NumArgs: 1, Effect: MaySuspend, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		ch, err := channelOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		v, ok := ch.Recv()
		if !ok {
			return 0, molterr.New(molterr.KindInternal, molterr.SCHChannelClosed, "receive on a closed, drained channel")
		}
		return v, nil
	}})

	Register(&Spec{Name: "channel.close", NumArgs: 1, Effect: WritesState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		ch, err := channelOf(ctx, args[0])
		if err != nil {
			return 0, err
		}
		ch.Close()
		return objmodel.Null, nil
	}})
}

func channelOf(ctx *Context, v objmodel.Value) (*scheduler.Channel, *molterr.Error) {
	p, err := payload(ctx, v, heap.KindChannel)
	if err != nil {
		return nil, err
	}
	return p.(*scheduler.Channel), nil
}
