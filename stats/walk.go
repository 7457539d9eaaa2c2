package stats

// WalkPath descends into a decoded JSON value following a sequence of object
// keys (string) and array indices (int). The second return is false if any
// step of the path is missing or of the wrong shape.
func WalkPath(v any, path ...any) (any, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil, false
			}
			if v, ok = m[key]; !ok {
				return nil, false
			}
		case int:
			s, ok := v.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil, false
			}
			v = s[key]
		default:
			return nil, false
		}
	}
	return v, true
}

// StringList coerces a decoded JSON value into a list of strings. A string
// input is decoded as JSON first, so values read back from a jsonb column can
// be fed through directly.
func StringList(v any) ([]string, bool) {
	if text, ok := v.(string); ok {
		decoded, err := DecodeValue([]byte(text))
		if err != nil {
			return nil, false
		}
		v = decoded
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, entry := range list {
			s, ok := entry.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
