package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// encode stores numbers, booleans and plain strings as primitive scalars and
// everything else as JSON text.
func encode(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal cache value: %w", err)
		}
		return string(data), nil
	}
}

// looksLikeJSON reports whether a stored value is JSON text rather than a
// primitive scalar. Only values starting with '{', '[' or '"' are parsed;
// everything else comes back as the raw string, which keeps plain string
// cache values from being mis-parsed.
func looksLikeJSON(s string) bool {
	if len(s) == 0 {
		return false
	}
	switch s[0] {
	case '{', '[', '"':
		return true
	}
	return false
}

// decodeInto deserializes a stored value into out. JSON-looking values are
// unmarshalled; scalar values are coerced by the concrete type of out.
func decodeInto(s string, out interface{}) error {
	if looksLikeJSON(s) {
		if err := json.Unmarshal([]byte(s), out); err != nil {
			return fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
		return nil
	}

	switch p := out.(type) {
	case *string:
		*p = s
	case *bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("cached value %q is not a bool: %w", s, err)
		}
		*p = v
	case *int:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("cached value %q is not an int: %w", s, err)
		}
		*p = int(v)
	case *int32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("cached value %q is not an int32: %w", s, err)
		}
		*p = int32(v)
	case *int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("cached value %q is not an int64: %w", s, err)
		}
		*p = v
	case *float32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("cached value %q is not a float32: %w", s, err)
		}
		*p = float32(v)
	case *float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("cached value %q is not a float64: %w", s, err)
		}
		*p = v
	default:
		return fmt.Errorf("cached scalar %q cannot populate %T", s, out)
	}
	return nil
}
