// Package fieldpath provides dotted-path lookup into free-form JSON-shaped
// payloads (maps decoded from JSON). A missing segment resolves to an
// explicit "absent" result rather than an error, so predicate evaluation
// can fail closed without exception handling.
package fieldpath

import "strings"

// Path is a dotted field path expression, e.g. "lead.status".
type Path string

// String returns the raw path expression.
func (p Path) String() string { return string(p) }

// Resolve walks the payload one segment at a time. Every intermediate
// segment must resolve to a nested map; anything else makes the whole
// path absent. The second return value reports presence: a path that
// exists with a nil value is present, a missing path is not.
func (p Path) Resolve(payload map[string]any) (any, bool) {
	raw := strings.TrimSpace(string(p))
	if raw == "" || payload == nil {
		return nil, false
	}

	segments := strings.Split(raw, ".")
	current := payload
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		nested, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		current = nested
	}

	return nil, false
}
