// Package mlog is the runtime-wide structured logging sink (SPEC_FULL.md
// §10.1). The teacher repo has no logging dependency of its own — it is
// a CLI/REPL tool using fmt/color for terminal output — so this package
// adopts github.com/rs/zerolog, grounded on its real production use in
// the example corpus's DataDog-datadog-agent tree. Log output is never
// part of program semantics: sinks are injectable so tests can capture
// or discard output without affecting determinism.
package mlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Field names used consistently across every call site so a consumer
// can filter/aggregate without string-matching messages.
const (
	FieldPhase  = "phase"   // "hir" | "tir" | "lir" | "native" | "sandbox" | "gc" | "scheduler"
	FieldSymbol = "symbol"
	FieldTask   = "task_id"
	FieldHandle = "handle"
)

// New creates a zerolog.Logger writing to w. Pass io.Discard in tests
// that don't want log noise, or a buffer to assert on specific events.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Default is a process-wide logger writing to stderr, matching the
// teacher's convention of a package-level default instance
// (internal/effects's package-level defaults) generalized to logging.
var Default = New(os.Stderr)

// Discard is a logger that drops all output, used by tests and by
// embedding hosts that supply their own sink via a Runtime option.
var Discard = New(io.Discard)
