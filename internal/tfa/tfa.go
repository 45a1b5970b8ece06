// Package tfa implements the Type Facts Artifact of spec §4.2: external,
// advisory (or in strict mode, assertive) type information for the TIR
// inference stage. This package defines the artifact, its YAML decoding
// and the two consumption modes; tir.Infer takes no Artifact, so facts
// recorded here do not reach inference.
package tfa

import (
	"fmt"

	"github.com/adpena/molt/internal/detjson"
	"gopkg.in/yaml.v3"
)

// Fact records one externally supplied type judgment for a symbol. Expr
// is the type's textual rendering (the same syntax the type printer
// produces), kept as a string here so this package has no dependency on
// the TIR type lattice; types.Parse reads that syntax back.
type Fact struct {
	SymbolID string `yaml:"symbol_id" json:"symbol_id"`
	Expr     string `yaml:"type" json:"type"`
}

// Artifact is a complete Type Facts Artifact: one producer identity plus
// an ordered list of facts. Facts are applied in order; later facts for
// the same SymbolID override earlier ones within a single Artifact.
type Artifact struct {
	Schema   string `yaml:"schema" json:"schema"`
	Producer string `yaml:"producer" json:"producer"`
	Facts    []Fact `yaml:"facts" json:"facts"`
}

// New creates an empty Artifact tagged with the given producer identity
// (e.g. "external-checker/1.4.0").
func New(producer string) *Artifact {
	return &Artifact{Schema: detjson.TFAv1, Producer: producer}
}

// Add appends or overrides a fact for symbolID.
func (a *Artifact) Add(symbolID, typeExpr string) {
	for i := range a.Facts {
		if a.Facts[i].SymbolID == symbolID {
			a.Facts[i].Expr = typeExpr
			return
		}
	}
	a.Facts = append(a.Facts, Fact{SymbolID: symbolID, Expr: typeExpr})
}

// Lookup returns the fact recorded for symbolID, if any; when several
// facts name symbolID, the last one wins.
func (a *Artifact) Lookup(symbolID string) (string, bool) {
	for i := len(a.Facts) - 1; i >= 0; i-- {
		if a.Facts[i].SymbolID == symbolID {
			return a.Facts[i].Expr, true
		}
	}
	return "", false
}

// Decode parses a Type Facts Artifact from YAML bytes — the teacher
// corpus's own eval_harness configuration is YAML (gopkg.in/yaml.v3), and
// TFA documents are hand-authored or emitted by a separate checker, so
// YAML is friendlier than JSON for that authoring path. The on-disk
// artifact itself need not be byte-reproducible (it's an external input,
// not a build output), so it is not routed through detjson.
func Decode(data []byte) (*Artifact, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("tfa: decode: %w", err)
	}
	if a.Schema == "" {
		a.Schema = detjson.TFAv1
	}
	return &a, nil
}

// Mode distinguishes advisory facts from asserted ones. Nothing in this
// module reads a Mode or raises MismatchError.
type Mode int

const (
	// Advisory facts widen or narrow the inferred lattice value but a
	// mismatch against what inference independently proves is not an
	// error (spec §4.2 default).
	Advisory Mode = iota
	// Strict facts are consumed as assertions; a mismatch is a
	// compile-time error (spec §4.2 "strict mode").
	Strict
)

// MismatchError is raised in Strict mode when an Artifact's fact
// disagrees with independently inferred type information.
type MismatchError struct {
	SymbolID string
	Asserted string
	Inferred string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("tfa: strict mismatch for %s: asserted %s, inferred %s", e.SymbolID, e.Asserted, e.Inferred)
}
