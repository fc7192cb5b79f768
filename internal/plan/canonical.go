package plan

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// DomainSnapshot is the domain prefix for snapshot content hashes.
// Version suffix enables future algorithm migration.
const DomainSnapshot = "planora/snapshot/v1"

// MarshalCanonical produces RFC 8785 style canonical JSON for hashing.
// This is the only serialization used for snapshot identity: two
// snapshots with equal content hash are guaranteed byte-identical in
// canonical form, which is what determinism tests compare.
//
// Differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats, no null (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		return marshalCanonicalObject(val)
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalObject serializes a map with keys sorted by UTF-16
// code units per RFC 8785.
func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessUTF16(keys[i], keys[j])
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("object key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// lessUTF16 compares strings by UTF-16 code units as RFC 8785 requires.
func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// marshalCanonicalString produces a canonical JSON string with NFC
// normalization and HTML escaping disabled.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, strip it.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content-addressed identity of a snapshot.
// The hash is stable across process restarts given the same inputs,
// and is recorded alongside schedule runs for provenance.
func (s *Snapshot) Hash() (string, error) {
	canonical, err := MarshalCanonical(s.toCanonicalMap())
	if err != nil {
		return "", fmt.Errorf("snapshot hash: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// toCanonicalMap converts the snapshot to plain maps and slices for
// canonical serialization. Optional zero-valued fields are omitted so
// that adding a field later does not change existing hashes.
func (s *Snapshot) toCanonicalMap() map[string]any {
	items := make([]any, len(s.Items))
	for i, it := range s.Items {
		m := map[string]any{
			"id":         it.ID,
			"name":       it.Name,
			"kind":       string(it.Kind),
			"work_kind":  string(it.WorkKind),
			"duration":   it.Duration,
			"importance": it.Importance,
			"urgency":    it.Urgency,
			"status":     string(it.Status),
		}
		if len(it.DependsOn) > 0 {
			deps := make([]any, len(it.DependsOn))
			for j, d := range it.DependsOn {
				deps[j] = d
			}
			m["depends_on"] = deps
		}
		if it.AsyncWait > 0 {
			m["async_wait"] = it.AsyncWait
		}
		if it.WorkflowID != "" {
			m["workflow_id"] = it.WorkflowID
			m["step_index"] = it.StepIndex
		}
		if it.Deadline != nil {
			m["deadline"] = it.Deadline.UTC().Format(time.RFC3339)
			m["deadline_kind"] = string(it.DeadlineKind)
		}
		items[i] = m
	}

	workflows := make([]any, len(s.Workflows))
	for i, wf := range s.Workflows {
		steps := make([]any, len(wf.Steps))
		for j, id := range wf.Steps {
			steps[j] = id
		}
		workflows[i] = map[string]any{
			"id":    wf.ID,
			"name":  wf.Name,
			"steps": steps,
		}
	}

	edges := make([]any, len(s.Edges))
	for i, e := range s.Edges {
		m := map[string]any{
			"from":  e.From,
			"to":    e.To,
			"block": string(e.Block),
		}
		if e.Note != "" {
			m["note"] = e.Note
		}
		edges[i] = m
	}

	return map[string]any{
		"items":     items,
		"workflows": workflows,
		"edges":     edges,
	}
}
