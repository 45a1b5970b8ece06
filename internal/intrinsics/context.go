package intrinsics

import (
	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/heap"
	"github.com/adpena/molt/internal/objmodel"
	"github.com/adpena/molt/internal/scheduler"
)

// Context is the per-call environment an intrinsic Impl runs in: the
// owning task's heap (for allocation and retain/release), the handle
// registry (for resolve/publish across task boundaries), the scheduler
// loop (for spawn/sleep/channel intrinsics), and the capability checker
// (spec §4.9). One Context is constructed per running Task, sharing the
// runtime-wide Loop and Registry but each owning its own Heap (spec
// §4.5 "objects are born biased to the task that allocated them").
type Context struct {
	Heap    *heap.Heap
	Handles *objmodel.Registry
	Loop    *scheduler.Loop
	Caps    *capability.Context
	Task    *scheduler.Task
}

// NewContext constructs a Context for one running task.
func NewContext(h *heap.Heap, handles *objmodel.Registry, loop *scheduler.Loop, caps *capability.Context, task *scheduler.Task) *Context {
	return &Context{Heap: h, Handles: handles, Loop: loop, Caps: caps, Task: task}
}
