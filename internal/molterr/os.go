//go:build !windows

package molterr

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// OSError is spec §7's "OSError (with platform errno code)": a native
// target I/O intrinsic failure wraps the underlying syscall errno.
// Grounded on golang.org/x/sys, already an indirect dependency of the
// teacher (pulled in via mattn/go-isatty) and promoted here to a direct
// dependency for errno access beyond what syscall's portable subset
// exposes.
type OSError struct {
	Op    string
	Errno unix.Errno
}

func (e *OSError) Error() string {
	return fmt.Sprintf("OSError: %s: %s (errno %d)", e.Op, e.Errno.Error(), int(e.Errno))
}

// AsMoltError converts an OSError into the generic *Error envelope,
// preserving the errno-bearing cause for programmatic inspection.
func (e *OSError) AsMoltError() *Error {
	return Wrap(KindOS, RTOSError, e, "%s: %s", e.Op, e.Errno.Error())
}

// NewOSError wraps a syscall error observed during op if it is a
// recognized errno, otherwise falls back to InternalError.
func NewOSError(op string, err error) *Error {
	if errno, ok := err.(unix.Errno); ok {
		return (&OSError{Op: op, Errno: errno}).AsMoltError()
	}
	return Wrap(KindInternal, RTInternal, err, "%s", op)
}
