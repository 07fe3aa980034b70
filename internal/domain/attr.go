package domain

// FromAttributeMap converts a document in the tagged key/value wire encoding
// (each value wrapped as {"S": ...}, {"N": ...}, {"BOOL": ...}, {"M": ...},
// {"L": ...} or {"NULL": true}) into the plain form the normalizers accept.
// Untagged input passes through unchanged, so callers can feed either
// encoding without sniffing it first.
func FromAttributeMap(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = untagValue(v)
	}
	return out
}

func untagValue(v any) any {
	tagged, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if len(tagged) != 1 {
		return untagMap(tagged)
	}

	for tag, inner := range tagged {
		switch tag {
		case "S":
			if s, ok := inner.(string); ok {
				return s
			}
		case "N":
			// Numbers stay strings here; the normalizers coerce them.
			if s, ok := inner.(string); ok {
				return s
			}
		case "BOOL":
			if b, ok := inner.(bool); ok {
				return b
			}
		case "NULL":
			return nil
		case "M":
			if m, ok := inner.(map[string]any); ok {
				return FromAttributeMap(m)
			}
		case "L":
			if list, ok := inner.([]any); ok {
				out := make([]any, len(list))
				for i, item := range list {
					out[i] = untagValue(item)
				}
				return out
			}
		}
		// Single-key map that is not a recognized tag: a regular nested object.
		return untagMap(tagged)
	}
	return v
}

func untagMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = untagValue(v)
	}
	return out
}
