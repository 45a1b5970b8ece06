package molterr

// Structured error codes, grouped by pipeline phase as described in
// SPEC_FULL.md §7. Mirrors the teacher's internal/errors phase-prefixed
// scheme (PAR###, MOD### ...) generalized to Molt's own phases.
const (
	// Frontend / HIR lowering (HIR###)
	HIRMalformedPattern  = "HIR001"
	HIRInvalidTarget     = "HIR002"
	HIRDynamicExecForbid = "HIR003"
	HIRUnresolvedImport  = "HIR004"

	// Typed SSA / inference (TIR###)
	TIRTypeMismatch     = "TIR001"
	TIROccursCheck      = "TIR002"
	TIRUnboundVariable  = "TIR003"
	TIRArityMismatch    = "TIR004"
	TIRStrictFactsMiss  = "TIR005"
	TIRNonDominatingUse = "TIR006"

	// Low-level IR / ownership (LIR###)
	LIRUnmatchedRetain = "LIR001"
	LIRUnmatchedHandle = "LIR002"
	LIRBadCallConv     = "LIR003"

	// Runtime (RT###)
	RTKeyError       = "RT001"
	RTIndexError     = "RT002"
	RTCapabilityDeny = "RT003" // also raised directly by capability.DeniedError
	RTZeroDivision   = "RT004"
	RTOverflow       = "RT005"
	RTOSError        = "RT006"
	RTInternal       = "RT007"

	// Scheduler / concurrency (SCH###)
	SCHCancelled      = "SCH001"
	SCHTimeout        = "SCH002"
	SCHChannelClosed  = "SCH003"
	SCHDeadlockDetect = "SCH004"

	// Sandbox ABI (SBX###)
	SBXDecodeError  = "SBX001"
	SBXEncodeError  = "SBX002"
	SBXSchemaMiss   = "SBX003"
	SBXCapabilityNo = "SBX004"
)
