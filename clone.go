package gqlcache

// Clone returns a deep copy of a JSON-shaped response: nested objects and
// arrays are copied, scalars are shared (they are immutable). Values of other
// types are copied by assignment.
func Clone(r Response) Response {
	if r == nil {
		return nil
	}
	return cloneMap(r)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return cloneMap(vv)
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
