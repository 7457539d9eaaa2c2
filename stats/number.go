package stats

import (
	"github.com/goccy/go-json"
	"strconv"
)

// Int64 converts a decoded JSON value or a value read back from the snapshot
// store into an int64. Handles json.Number, raw database integers and the
// float64 values some decoders produce.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func Uint64(v any) (uint64, bool) {
	if i, ok := Int64(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

func Float64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
