package native

import (
	"crypto/sha256"
	"fmt"

	"github.com/adpena/molt/internal/capability"
	"github.com/adpena/molt/internal/lir"
)

// Artifact is the native-executable backend's output: the generated Go
// source plus the digest spec §8's reproducibility property is checked
// against ("recompiling with identical inputs and manifest produces
// byte-identical native ... artifacts"). The digest folds in the build
// configuration, not just the source text, so two builds that emit
// identical code under different capability manifests are correctly
// treated as distinct artifacts.
type Artifact struct {
	Source string
	Digest [sha256.Size]byte
}

// Build renders prog through Emitter and computes its reproducibility
// digest over the generated source plus the deterministic fields of cfg.
// Build performs no I/O and invokes no external toolchain; writing the
// source to disk and invoking `go build` against it is the CLI
// front-end's job, out of scope per spec §1.
func Build(prog *lir.Program, cfg capability.BuildConfig, granted capability.Set) *Artifact {
	src := NewEmitter().Emit(prog)
	h := sha256.New()
	h.Write([]byte(src))
	fmt.Fprintf(h, "\x00seed=%d\x00trusted=%t\x00deterministic=%t\x00caps=%d",
		cfg.HashSeed, cfg.Trusted, cfg.Deterministic, uint64(granted))
	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))
	return &Artifact{Source: src, Digest: digest}
}

// DigestHex renders the artifact's reproducibility digest as lowercase
// hex, the form a package archive checksum sidecar (spec §6.1) records.
func (a *Artifact) DigestHex() string {
	return fmt.Sprintf("%x", a.Digest)
}
