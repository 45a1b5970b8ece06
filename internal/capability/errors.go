package capability

import "fmt"

// DeniedError is raised when an operation requires a capability that was
// not granted by the build manifest (spec §4.9, error kind
// CapabilityDenied). It carries the specific missing bit so callers can
// report which permission to add rather than a generic denial.
type DeniedError struct {
	Missing Bit
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("capability denied: %q is required but not granted", e.Missing)
}

// Code returns the structured error code for this kind, grouped under
// the runtime phase per SPEC_FULL.md §7 (RT###).
func (e *DeniedError) Code() string { return "RT003" }

// NewDeniedError creates a DeniedError for a single missing capability.
func NewDeniedError(missing Bit) *DeniedError {
	return &DeniedError{Missing: missing}
}
