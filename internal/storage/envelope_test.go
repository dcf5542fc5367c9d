package storage

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEnvelope_MarshalFlattensVersion(t *testing.T) {
	env := Envelope{Version: "1.0.0", Fields: map[string]any{"content": "hi", "version": "stale"}}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{"content": "hi", "version": "1.0.0"}
	if !reflect.DeepEqual(flat, want) {
		t.Fatalf("flat = %#v, want %#v", flat, want)
	}
}

func TestEnvelope_UnmarshalWithoutVersion(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"content":"x"}`), &env); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if env.Version != "" {
		t.Fatalf("Version = %q, want empty", env.Version)
	}
	if env.Fields["content"] != "x" {
		t.Fatalf("content = %v, want x", env.Fields["content"])
	}
}

func TestEnvelope_UnmarshalNumericVersionIsIgnored(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"content":"x","version":0}`), &env); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if env.Version != "" {
		t.Fatalf("Version = %q, want empty", env.Version)
	}
	if env.Has("version") {
		t.Fatalf("version should not remain in Fields")
	}
}

func TestEnvelope_UnmarshalRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`null`, `[1,2]`, `"text"`} {
		var env Envelope
		if err := json.Unmarshal([]byte(raw), &env); err == nil {
			t.Fatalf("Unmarshal(%s) returned nil error, want error", raw)
		}
	}
}

func TestEnvelopeOf_AndDecode(t *testing.T) {
	type payload struct {
		Content string `json:"content"`
		Dirty   bool   `json:"dirty"`
	}
	env, err := EnvelopeOf(payload{Content: "abc", Dirty: true})
	if err != nil {
		t.Fatalf("EnvelopeOf returned error: %v", err)
	}
	var got payload
	if err := env.Decode(&got); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got.Content != "abc" || !got.Dirty {
		t.Fatalf("Decode = %#v, want content=abc dirty=true", got)
	}
}

func TestMigrations_ApplyUnversionedIsCurrentNotMigrated(t *testing.T) {
	m := Migrations{"1.0.0": func(e Envelope) Envelope {
		t.Fatalf("migration should not run for unversioned data")
		return e
	}}
	out := m.Apply(NewEnvelope(map[string]any{"a": 1}), "1.0.0")
	if out.Version != "1.0.0" {
		t.Fatalf("Version = %q, want 1.0.0", out.Version)
	}
	if out.Migrated {
		t.Fatalf("Migrated = true, want false")
	}
}

func TestMigrations_ApplyRunsPendingInSemverOrder(t *testing.T) {
	var order []string
	record := func(v string) Migration {
		return func(e Envelope) Envelope {
			order = append(order, v)
			e.Fields["steps"] = append(asStrings(e.Fields["steps"]), v)
			return e
		}
	}
	m := Migrations{
		"1.0.0":  record("1.0.0"),
		"1.10.0": record("1.10.0"),
		"1.2.0":  record("1.2.0"),
		"2.0.0":  record("2.0.0"),
	}

	env := Envelope{Version: "1.0.0", Fields: map[string]any{}}
	out := m.Apply(env, "1.10.0")

	want := []string{"1.2.0", "1.10.0"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if out.Version != "1.10.0" {
		t.Fatalf("Version = %q, want 1.10.0", out.Version)
	}
	if !out.Migrated {
		t.Fatalf("Migrated = false, want true")
	}
	if env.Has("steps") {
		t.Fatalf("Apply mutated the input envelope")
	}
}

func TestMigrations_ApplySameVersionUnchanged(t *testing.T) {
	m := Migrations{"1.0.0": func(e Envelope) Envelope {
		t.Fatalf("migration should not run")
		return e
	}}
	env := Envelope{Version: "1.0.0", Fields: map[string]any{"a": "b"}}
	out := m.Apply(env, "1.0.0")
	if out.Migrated || out.Fields["a"] != "b" {
		t.Fatalf("Apply changed a current envelope: %#v", out)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.2.0", "1.10.0", -1},
		{"v2.0.0", "1.9.9", 1},
		{"garbage", "0.0.1", -1},
	}
	for _, tt := range tests {
		if got := compareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func asStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
