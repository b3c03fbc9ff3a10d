// Package attrs extracts typed values from loosely-typed attribute maps,
// such as the custom-claims map that comes back from the authentication
// service as decoded JSON.
package attrs

// String returns the string at key, or empty when the key is absent or the
// value has another type.
func String(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// Bool returns the bool at key, false when absent or mistyped.
func Bool(m map[string]any, key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

// Strings returns the string list at key. Decoded JSON yields []any, so both
// encodings are accepted; non-string elements are dropped.
func Strings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
