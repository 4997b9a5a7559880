package layering

// Merge composes two map-shaped record values so that every key present in
// strong survives untouched while keys missing from strong are filled from
// weak. Nested map[string]any values merge recursively; every other value is
// copied as-is. Neither input is mutated.
func Merge(strong, weak map[string]any) map[string]any {
	if strong == nil && weak == nil {
		return nil
	}

	out := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		out[key] = Clone(value)
	}
	for key, value := range strong {
		existing, ok := out[key]
		if !ok {
			out[key] = Clone(value)
			continue
		}
		strongMap, strongOK := value.(map[string]any)
		weakMap, weakOK := existing.(map[string]any)
		if strongOK && weakOK {
			out[key] = Merge(strongMap, weakMap)
			continue
		}
		out[key] = Clone(value)
	}
	return out
}

// Clone deep-copies JSON-shaped data (maps, slices, scalars). Values of other
// kinds are returned unchanged, so callers must not store pointers they intend
// to mutate inside layered payloads.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			out[key] = Clone(nested)
		}
		return out
	case []any:
		if typed == nil {
			return []any(nil)
		}
		out := make([]any, len(typed))
		for i, nested := range typed {
			out[i] = Clone(nested)
		}
		return out
	case []string:
		if typed == nil {
			return []string(nil)
		}
		out := make([]string, len(typed))
		copy(out, typed)
		return out
	default:
		return value
	}
}
