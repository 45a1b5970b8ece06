// Package molcfg defines the deterministic configuration record spec §2
// says every pipeline stage is a pure function of: optimization level,
// target, capability manifest, and hash seed. The CLI front-end that
// would normally populate this from flags/files is out of scope (spec
// §1); this package only defines the record and its environment-derived
// defaults (spec §6.5), grounded on the teacher's EffEnv/loadEffEnv
// pattern (see internal/capability.LoadBuildConfig, which this package
// composes).
package molcfg

import (
	"github.com/adpena/molt/internal/capability"
)

// OptLevel selects how aggressively TIR/LIR passes specialize and
// inline (spec §4.2 "Specialization / monomorphization").
type OptLevel int

const (
	OptNone OptLevel = iota
	OptSpeed
	OptSize
)

// Target selects which backend consumes the shared LIR (spec §4.4).
type Target string

const (
	TargetNative  Target = "native"
	TargetSandbox Target = "sandbox"
)

// Config is the deterministic configuration record threaded through
// every pipeline stage. Two compiles with an identical Config and
// identical source inputs must produce byte-identical artifacts (spec
// §8).
type Config struct {
	Opt          OptLevel
	Target       Target
	Capabilities capability.Set
	Build        capability.BuildConfig
}

// Default returns a Config with no capabilities granted, optimization
// off, targeting native, and the build-time environment contract (spec
// §6.5) loaded from the process environment.
func Default() Config {
	return Config{
		Opt:    OptNone,
		Target: TargetNative,
		Build:  capability.LoadBuildConfig(),
	}
}

// CapabilityContext builds a capability.Context from this Config,
// honoring the Trusted override.
func (c Config) CapabilityContext() *capability.Context {
	return capability.NewContext(c.Capabilities, c.Build)
}
