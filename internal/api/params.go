package api

import (
	"bytes"
	"encoding/json"
)

// positional holds JSON-RPC params given as an array
type positional []json.RawMessage

func parseParams(raw json.RawMessage) (positional, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var p positional
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, invalidParams("params must be an array")
	}
	return p, nil
}

func (p positional) present(i int) bool {
	return i < len(p) && !bytes.Equal(bytes.TrimSpace(p[i]), []byte("null"))
}

// String returns the required string parameter at i
func (p positional) String(i int, name string) (string, error) {
	if !p.present(i) {
		return "", invalidParams("missing required parameter: %s", name)
	}
	var s string
	if err := json.Unmarshal(p[i], &s); err != nil || s == "" {
		return "", invalidParams("%s must be a non-empty string", name)
	}
	return s, nil
}

// OptString returns the string parameter at i, or "" when absent
func (p positional) OptString(i int, name string) (string, error) {
	if !p.present(i) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(p[i], &s); err != nil {
		return "", invalidParams("%s must be a string", name)
	}
	return s, nil
}

// OptInt returns the integer parameter at i, or 0 when absent
func (p positional) OptInt(i int, name string) (int, error) {
	if !p.present(i) {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(p[i], &n); err != nil || n < 0 {
		return 0, invalidParams("%s must be a non-negative integer", name)
	}
	return n, nil
}

// Strings returns every parameter as a string list. A single array parameter
// is unpacked.
func (p positional) Strings(name string) ([]string, error) {
	if len(p) == 1 {
		var list []string
		if err := json.Unmarshal(p[0], &list); err == nil {
			return list, nil
		}
	}
	out := make([]string, 0, len(p))
	for i := range p {
		s, err := p.String(i, name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
