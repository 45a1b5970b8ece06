package tir

import "github.com/adpena/molt/internal/types"

// resolveDispatch assigns each Call in v one of the three dispatch modes
// spec §4.2 names:
//
//   - Static: the callee is provably a single known target — an
//     intrinsic, or the immediately-invoked closure pattern comprehensions
//     and lambdas lower to — so the call can bind directly with no
//     runtime lookup.
//   - Guarded: the callee's type is a single Callable signature but its
//     identity isn't proven unique (e.g. a variable joined from several
//     closures); the backend emits a type check against that
//     signature with a deopt fallback rather than a full dynamic lookup.
//   - Dynamic: nothing is known; the backend performs the general
//     attribute/vtable dispatch.
func resolveDispatch(v *Variant) {
	for _, blk := range v.Blocks {
		for _, instr := range blk.Instrs {
			call, ok := instr.(*Call)
			if !ok {
				continue
			}
			resolveCallDispatch(call)
		}
	}
}

func resolveCallDispatch(call *Call) {
	switch callee := call.Callee.(type) {
	case *IntrinsicRef:
		// Only a dotted intrinsic name is a known target; a free global
		// name is resolved at runtime.
		if intrinsicName(callee.Name) {
			call.Dispatch = DispatchStatic
		} else {
			call.Dispatch = DispatchDynamic
		}
	case *MakeClosure:
		call.Dispatch = DispatchStatic
		call.ResolvedFunc = callee.Func
	default:
		if ct := call.Callee.Type(); ct != nil && ct.Tag == types.TagCallable {
			call.Dispatch = DispatchGuarded
		} else {
			call.Dispatch = DispatchDynamic
		}
	}
	for _, a := range call.Args {
		call.ArgTypeTuple = append(call.ArgTypeTuple, safeType(a))
	}
}
