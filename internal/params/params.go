// Package params provides a typed, defaulted view over a request's
// key→value parameter map, backed by koanf's confmap provider.
package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Request wraps the raw parameter map of a single report request.
type Request struct {
	k *koanf.Koanf
}

// New builds a Request from the raw key→value map.
func New(values map[string]any) (*Request, error) {
	k := koanf.New(".")
	if values == nil {
		values = map[string]any{}
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, fmt.Errorf("load request parameters: %w", err)
	}
	return &Request{k: k}, nil
}

// Has reports whether the parameter was supplied.
func (r *Request) Has(key string) bool {
	return r.k.Exists(key)
}

// String returns the parameter as a string, or def when absent.
func (r *Request) String(key, def string) string {
	if !r.k.Exists(key) {
		return def
	}
	return strings.TrimSpace(r.k.String(key))
}

// Int returns the parameter as an int, or def when absent or
// unparseable.
func (r *Request) Int(key string, def int) int {
	if !r.k.Exists(key) {
		return def
	}
	switch v := r.k.Get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the parameter as a boolean, or def when absent. The "0"
// and "1" string forms used by request flags are accepted alongside
// native booleans and numbers.
func (r *Request) Bool(key string, def bool) bool {
	if !r.k.Exists(key) {
		return def
	}
	switch v := r.k.Get(key).(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return def
}

// StringSlice returns the parameter as a list of strings. A scalar value
// yields a single-element list; absent yields nil.
func (r *Request) StringSlice(key string) []string {
	if !r.k.Exists(key) {
		return nil
	}
	switch v := r.k.Get(key).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	case string:
		return []string{v}
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

// ColumnList returns a comma-delimited parameter as trimmed, non-empty
// column names.
func (r *Request) ColumnList(key string) []string {
	raw := r.String(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
