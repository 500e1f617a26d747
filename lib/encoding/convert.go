package encoding

import "time"

// The helpers below read values out of a decoded msgpack map. msgpack
// picks the smallest integer width that fits, so a field written as int64
// may come back as int8 or uint16. Generated HXDecode methods call these
// instead of type-asserting directly.

// Int64 converts any numeric value to int64. Non-numeric values yield 0.
func Int64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Uint64 converts any numeric value to uint64.
func Uint64(v any) uint64 {
	if n, ok := v.(uint64); ok {
		return n
	}
	return uint64(Int64(v))
}

// Float64 converts any numeric value to float64.
func Float64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return float64(Int64(v))
	}
}

// Strings converts a decoded array to []string, skipping non-string
// elements.
func Strings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Time parses an RFC 3339 timestamp. Anything else yields the zero time.
func Time(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}
