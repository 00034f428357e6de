package column

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// isInteger reports whether v is a Go integer (bool excluded).
func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// toInt64 coerces integers, integral floats and numeric text to int64.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		return uintToInt64(uint64(n))
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case []byte:
		return parseInt64(string(n))
	case string:
		return parseInt64(n)
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func uintToInt64(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, fmt.Errorf("%d overflows int64", u)
	}
	return int64(u), nil
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

// toFloat64 coerces numbers and numeric text to float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case []byte:
		return parseFloat64(string(n))
	case string:
		return parseFloat64(n)
	}
	if isInteger(v) {
		i, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func parseFloat64(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

// truthy applies general truthiness: nil, false, zero numbers and empty
// strings are false, everything else true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []byte:
		return len(val) > 0
	case float32:
		return val != 0
	case float64:
		return val != 0
	}
	if isInteger(v) {
		n, err := toInt64(v)
		return err != nil || n != 0
	}
	return true
}

// storedTruthy reads a boolean back from storage. Text-protocol drivers
// return integers as text, so numeric text is compared to zero.
func storedTruthy(v any) bool {
	switch val := v.(type) {
	case []byte:
		return storedTruthy(string(val))
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return n != 0
		}
		return val != ""
	}
	return truthy(v)
}

// asText returns v as a string when it is textual storage.
func asText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	}
	return "", false
}
