package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// CurrentVersion is the schema version stamped on every saved envelope.
const CurrentVersion = "1.0.0"

const versionField = "version"

// Envelope wraps a persisted blob with its schema version. On disk it is a
// flat JSON object: the fields plus a "version" string.
type Envelope struct {
	Version  string
	Migrated bool // set by Load when at least one migration ran
	Fields   map[string]any
}

// NewEnvelope returns an unversioned envelope holding a copy of fields.
func NewEnvelope(fields map[string]any) Envelope {
	env := Envelope{Fields: make(map[string]any, len(fields))}
	maps.Copy(env.Fields, fields)
	return env
}

// EnvelopeOf converts a JSON-tagged struct into an envelope.
func EnvelopeOf(v any) (Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal envelope fields: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return Envelope{}, fmt.Errorf("envelope fields must be an object: %w", err)
	}
	delete(fields, versionField)
	return Envelope{Fields: fields}, nil
}

// Decode fills dest (a pointer to a JSON-tagged struct) from the fields.
func (e Envelope) Decode(dest any) error {
	data, err := json.Marshal(e.fields())
	if err != nil {
		return fmt.Errorf("marshal envelope fields: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	return nil
}

// Has reports whether the envelope carries the named field.
func (e Envelope) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Clone returns a copy with its own top-level field map.
func (e Envelope) Clone() Envelope {
	out := e
	out.Fields = make(map[string]any, len(e.Fields))
	maps.Copy(out.Fields, e.Fields)
	return out
}

func (e Envelope) fields() map[string]any {
	if e.Fields == nil {
		return map[string]any{}
	}
	return e.Fields
}

// MarshalJSON flattens the version tag into the field object.
func (e Envelope) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Fields)+1)
	maps.Copy(flat, e.Fields)
	delete(flat, versionField)
	if e.Version != "" {
		flat[versionField] = e.Version
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads a flat object. A missing or non-string version leaves
// Version empty so Load treats the blob as pre-versioning data.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if flat == nil {
		return fmt.Errorf("envelope is not an object")
	}
	e.Version = ""
	if v, ok := flat[versionField].(string); ok {
		e.Version = strings.TrimSpace(v)
	}
	delete(flat, versionField)
	e.Fields = flat
	e.Migrated = false
	return nil
}

// Migration transforms a whole envelope to the version it is registered under.
type Migration func(Envelope) Envelope

// Migrations maps a target version to the migration producing it.
type Migrations map[string]Migration

// Apply upgrades env to current. Envelopes without a version are taken to be
// current already and are not marked migrated. Migrations whose target lies
// in (stored, current] run in ascending version order.
func (m Migrations) Apply(env Envelope, current string) Envelope {
	if env.Version == "" {
		out := env.Clone()
		out.Version = current
		out.Migrated = false
		return out
	}
	if compareVersions(env.Version, current) == 0 {
		return env
	}

	out := env.Clone()
	for _, target := range m.pending(env.Version, current) {
		migrate := m[target]
		if migrate == nil {
			continue
		}
		out = migrate(out.Clone())
		out.Version = target
		out.Migrated = true
	}
	out.Version = current
	return out
}

func (m Migrations) pending(stored, current string) []string {
	var targets []string
	for target := range m {
		if compareVersions(target, stored) > 0 && compareVersions(target, current) <= 0 {
			targets = append(targets, target)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		if c := compareVersions(targets[i], targets[j]); c != 0 {
			return c < 0
		}
		return targets[i] < targets[j]
	})
	return targets
}

// compareVersions orders "1.2.0"-style strings semantically. Invalid strings
// sort below valid ones and equal to each other.
func compareVersions(a, b string) int {
	return semver.Compare(canonicalVersion(a), canonicalVersion(b))
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
