package intrinsics

import (
	"time"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

func init() {
	registerTimeOps()
}

// clockStart is the reference instant time.monotonic and
// time.performance measure elapsed time from.
var clockStart = time.Now()

// registerTimeOps implements spec §4.8's three time sources: monotonic
// and performance are always available (pure observation of a clock
// with no wall-clock correspondence, so determinism-mode builds still
// permit them for interval measurement); wall requires the time.wall
// capability since it exposes real-world timestamps that a deterministic
// replay cannot reproduce.
func registerTimeOps() {
	Register(&Spec{Name: "time.monotonic", NumArgs: 0, Effect: ReadsState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		return objmodel.FromFloat(time.Since(clockStart).Seconds()), nil
	}})

	Register(&Spec{Name: "time.performance", NumArgs: 0, Effect: ReadsState, Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		return objmodel.FromFloat(float64(time.Since(clockStart).Nanoseconds())), nil
	}})

	Register(&Spec{Name: "time.wall", NumArgs: 0, Effect: ReadsState, Capabilities: capability.Set(0).Grant(capability.TimeWall), Impl: func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
		return objmodel.FromFloat(float64(time.Now().UnixNano()) / 1e9), nil
	}})
}
