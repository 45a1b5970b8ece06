// Package intrinsics implements the closed intrinsic-identifier set of
// spec §4.8: the dotted-name operations (iter.next, value.eq, list.append,
// context.enter, error.new, ...) that HIR/TIR lowering emits directly
// rather than through dynamic name lookup, plus arithmetic, string/bytes,
// hashing, I/O, scheduler, channel, time, and parallel-kernel operations.
//
// Grounded on the teacher's internal/builtins registry (internal/builtins/
// registry.go's BuiltinMeta{Name,NumArgs,IsPure} + register.go's
// RegisterEffectBuiltin(BuiltinSpec{Module,Name,Effect,Type,Impl})
// pattern), generalized from the teacher's per-builtin Effect string and
// internal/effects.EffContext to this runtime's capability.Set and
// molterr-typed may-raise set.
package intrinsics

import (
	"fmt"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/molterr"
	"github.com/adpena/molt/internal/objmodel"
)

// Effect is the coarse effect classification spec §4.8 requires every
// intrinsic to declare.
type Effect int

const (
	Pure Effect = iota
	ReadsState
	WritesState
	MaySuspend
)

// Impl is an intrinsic's implementation: it receives the calling
// Context and its already-evaluated arguments, and returns a result
// Value or a *molterr.Error (spec §4.8 "error construction with
// structured traceback entries" — Impl returns the typed error directly
// so the caller can attach a frame without re-classifying a bare Go
// error).
type Impl func(ctx *Context, args []objmodel.Value) (objmodel.Value, *molterr.Error)

// Spec describes one closed intrinsic identifier.
type Spec struct {
	Name         string
	NumArgs      int  // -1 means variadic
	Effect       Effect
	MayRaise     []molterr.Kind
	Capabilities capability.Set // capabilities this call requires, checked at call time
	Impl         Impl
}

// Registry is the closed set of known intrinsic identifiers, keyed by
// their dotted name (e.g. "value.eq", "list.append").
var Registry = make(map[string]*Spec)

// Register adds spec to the closed set. Panics on a duplicate name,
// matching the teacher's RegisterEffectBuiltin panic-on-conflict
// discipline — a name collision between two intrinsic sources is a
// build-time bug, not a runtime condition.
func Register(spec *Spec) {
	if _, exists := Registry[spec.Name]; exists {
		panic(fmt.Sprintf("intrinsics: duplicate registration for %q", spec.Name))
	}
	Registry[spec.Name] = spec
}

// Lookup resolves a dotted intrinsic name. ok is false for any name
// outside the closed set — lowering must reject such a call at compile
// time (spec §4.8), this is the runtime-side mirror of that check.
func Lookup(name string) (*Spec, bool) {
	s, ok := Registry[name]
	return s, ok
}

// Call resolves and invokes name, checking argument count and capability
// grants before dispatching to the Spec's Impl.
func Call(ctx *Context, name string, args []objmodel.Value) (objmodel.Value, *molterr.Error) {
	spec, ok := Lookup(name)
	if !ok {
		return 0, molterr.New(molterr.KindInternal, molterr.RTInternal, "unknown intrinsic %q", name)
	}
	if spec.NumArgs >= 0 && len(args) != spec.NumArgs {
		return 0, molterr.New(molterr.KindInternal, molterr.RTInternal, "intrinsic %q expects %d args, got %d", name, spec.NumArgs, len(args))
	}
	if err := ctx.Caps.RequireAll(spec.Capabilities); err != nil {
		return 0, molterr.Wrap(molterr.KindCapabilityDenied, molterr.RTCapabilityDeny, err, "intrinsic %q", name)
	}
	return spec.Impl(ctx, args)
}
