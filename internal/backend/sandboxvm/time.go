package sandboxvm

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// monotonicNanos and wallNanos back the HostMonotonicTime/HostWallTime
// imports (spec §4.8 "time sources (monotonic, performance, wall — the
// last requires the time.wall capability)"). Only wallNanos is gated;
// monotonic time carries no capability requirement and is never itself
// a source of cross-run nondeterminism in the sense spec §6.5's
// DETERMINISTIC flag cares about (it measures elapsed duration, not an
// absolute calendar instant), so it is intentionally exempt from the
// DETERMINISTIC nondeterministic-intrinsic restriction that wall time
// and secure randomness are subject to.
func monotonicNanos() int64 { return int64(time.Since(monoStart)) }

// monoStart is the reference instant monotonicNanos measures from.
var monoStart = time.Now()

func wallNanos() int64 { return time.Now().UnixNano() }

// secureRandomU64 backs HostSecureRandom, gated by capability.SecureRandom.
func secureRandomU64() uint64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
