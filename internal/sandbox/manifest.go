// Package sandbox implements the portable sandbox module artifact: the
// sidecar manifest format of spec §6.1 and the package archive of §6.1's
// third bullet. Both are External Interfaces the core owns even though
// the CLI commands that produce and upload them are out of scope.
package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/adpena/molt/internal/detjson"
)

// ABIVersion is the sandbox host ABI version this manifest format
// targets (spec §6.2).
const ABIVersion = "1"

// Export describes one guest-exposed function in a sandbox module's
// export manifest (spec §6.1).
type Export struct {
	FunctionID     uint32   `json:"function_id"`
	Name           string   `json:"name"`
	InputSchemas   []string `json:"input_schemas"`
	OutputSchema   string   `json:"output_schema"`
	Codec          string   `json:"codec"`
	Deterministic  bool     `json:"deterministic"`
	Capabilities   []string `json:"capabilities,omitempty"`
	DefaultSchema  string   `json:"default_schema,omitempty"`
}

// Manifest is the structured sidecar manifest carried alongside a
// sandbox module binary (spec §6.1).
type Manifest struct {
	Schema        string   `json:"schema"`
	ABIVersion    string   `json:"abi_version"`
	ModuleName    string   `json:"module_name"`
	ModuleVersion string   `json:"module_version"`
	Exports       []Export `json:"exports"`
	Schemas       []string `json:"schemas"`

	// The manifest's digest is not part of the wire format read by the
	// host; Digest() computes it on demand from the deterministic
	// serialization, to support the byte-reproducibility property of
	// spec §8. Save and Load neither write nor check a digest.
}

// New creates an empty Manifest for the given module identity.
func New(moduleName, moduleVersion string) *Manifest {
	return &Manifest{
		Schema:        detjson.SandboxManifestV1,
		ABIVersion:    ABIVersion,
		ModuleName:    moduleName,
		ModuleVersion: moduleVersion,
	}
}

// AddExport appends an export entry and registers any input/output
// schema identifiers that are not already recorded in Schemas.
func (m *Manifest) AddExport(e Export) {
	m.Exports = append(m.Exports, e)
	m.registerSchema(e.OutputSchema)
	for _, s := range e.InputSchemas {
		m.registerSchema(s)
	}
}

func (m *Manifest) registerSchema(id string) {
	if id == "" {
		return
	}
	for _, existing := range m.Schemas {
		if existing == id {
			return
		}
	}
	m.Schemas = append(m.Schemas, id)
}

// ResolveSchema implements the deterministic schema-selection order of
// spec §6.3's Invocation Protocol:
//  1. caller-supplied schema identifier, if any
//  2. the export's default_schema, if declared
//  3. the export's sole input schema, if exactly one is declared
//  4. otherwise SchemaRequired
func (m *Manifest) ResolveSchema(functionID uint32, callerSchema string) (string, error) {
	var exp *Export
	for i := range m.Exports {
		if m.Exports[i].FunctionID == functionID {
			exp = &m.Exports[i]
			break
		}
	}
	if exp == nil {
		return "", fmt.Errorf("sandbox: no export with function_id %d", functionID)
	}
	if callerSchema != "" {
		return callerSchema, nil
	}
	if exp.DefaultSchema != "" {
		return exp.DefaultSchema, nil
	}
	if len(exp.InputSchemas) == 1 {
		return exp.InputSchemas[0], nil
	}
	return "", ErrSchemaRequired
}

// ErrSchemaRequired is returned by ResolveSchema when none of the three
// deterministic fallbacks apply. Runtime "latest schema" resolution is
// forbidden by spec §6.3; callers must fix the manifest or supply an
// explicit schema identifier at the call site.
var ErrSchemaRequired = fmt.Errorf("sandbox: SchemaRequired")

// Validate checks internal consistency: no duplicate function IDs, every
// referenced schema is registered, and the schema/ABI version fields are
// populated.
func (m *Manifest) Validate() error {
	if m.Schema == "" || m.ABIVersion == "" || m.ModuleName == "" {
		return fmt.Errorf("sandbox: manifest missing required identity fields")
	}
	seen := make(map[uint32]bool)
	known := make(map[string]bool, len(m.Schemas))
	for _, s := range m.Schemas {
		known[s] = true
	}
	for _, e := range m.Exports {
		if seen[e.FunctionID] {
			return fmt.Errorf("sandbox: duplicate function_id %d", e.FunctionID)
		}
		seen[e.FunctionID] = true
		if e.OutputSchema != "" && !known[e.OutputSchema] {
			return fmt.Errorf("sandbox: export %q references unregistered schema %q", e.Name, e.OutputSchema)
		}
		for _, in := range e.InputSchemas {
			if !known[in] {
				return fmt.Errorf("sandbox: export %q references unregistered schema %q", e.Name, in)
			}
		}
	}
	return nil
}

// sortedCopy returns a copy of the manifest with Exports and Schemas
// sorted into a canonical order, so that two manifests built from the
// same logical content serialize to identical bytes regardless of the
// order operations were performed in — required by the rebuild-identity
// property of spec §8.
func (m *Manifest) sortedCopy() *Manifest {
	out := *m
	out.Exports = append([]Export(nil), m.Exports...)
	out.Schemas = append([]string(nil), m.Schemas...)
	sort.Slice(out.Exports, func(i, j int) bool { return out.Exports[i].FunctionID < out.Exports[j].FunctionID })
	sort.Strings(out.Schemas)
	return &out
}

// Marshal serializes the manifest deterministically.
func (m *Manifest) Marshal() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := detjson.MarshalDeterministic(m.sortedCopy())
	if err != nil {
		return nil, fmt.Errorf("sandbox: marshal manifest: %w", err)
	}
	return detjson.FormatJSON(data)
}

// Digest returns the sha256 digest of the manifest's deterministic
// serialization, used to verify byte-for-byte reproducibility across
// rebuilds and to populate the package archive checksum (spec §6.1).
func (m *Manifest) Digest() (string, error) {
	data, err := m.Marshal()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Save writes the manifest to path as deterministic, indented JSON.
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads and validates a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sandbox: read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("sandbox: parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("sandbox: invalid manifest: %w", err)
	}
	return &m, nil
}
