package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/adpena/molt/internal/detjson"
)

// Archive is the structured package archive of spec §6.1: an artifact
// payload, its manifest, a checksum, and optional signature and
// bill-of-materials sidecars. Signing and registry upload are CLI
// concerns and out of scope (spec §1); this type defines the archive
// shape and the checksum the core is responsible for computing.
type Archive struct {
	Schema    string  `json:"schema"`
	Artifact  []byte  `json:"artifact"`
	Manifest  *Manifest `json:"manifest"`
	Checksum  string  `json:"checksum"`
	Signature []byte  `json:"signature,omitempty"`
	SBOM      []byte  `json:"sbom,omitempty"`
}

// NewArchive builds an Archive from a compiled artifact and its
// manifest, computing the checksum over the artifact bytes.
func NewArchive(artifact []byte, manifest *Manifest) *Archive {
	sum := sha256.Sum256(artifact)
	return &Archive{
		Schema:   detjson.PackageArchiveV1,
		Artifact: artifact,
		Manifest: manifest,
		Checksum: "sha256:" + hex.EncodeToString(sum[:]),
	}
}

// Verify recomputes the artifact checksum and confirms it matches the
// recorded one, and that the embedded manifest is internally valid.
func (a *Archive) Verify() error {
	sum := sha256.Sum256(a.Artifact)
	want := "sha256:" + hex.EncodeToString(sum[:])
	if a.Checksum != want {
		return fmt.Errorf("sandbox: archive checksum mismatch: recorded %s, computed %s", a.Checksum, want)
	}
	if a.Manifest == nil {
		return fmt.Errorf("sandbox: archive missing manifest")
	}
	return a.Manifest.Validate()
}

// AttachSignature records a detached signature over the archive's
// checksum. Molt's core does not implement a signing scheme itself
// (packaging/signing is explicitly out of scope, spec §1); this is a
// hook point for a capability-gated external signer to populate.
func (a *Archive) AttachSignature(sig []byte) {
	a.Signature = sig
}

// AttachSBOM records an optional software bill-of-materials sidecar.
func (a *Archive) AttachSBOM(sbom []byte) {
	a.SBOM = sbom
}
