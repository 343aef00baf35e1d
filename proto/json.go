package proto

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// decodeObject parses raw JSON into a map, keeping numbers as
// json.Number so the codec can distinguish integer from fractional
// values.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, newError(MalformedMessage, "", "not a JSON object: %v", err)
	}
	return obj, nil
}

// objectKeys lists the keys present in obj, sorted, for diagnostics on
// malformed input.
func objectKeys(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// asString unwraps a decoded JSON string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asBool unwraps a decoded JSON boolean.
func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asInt unwraps a decoded JSON number with no fractional part. It
// accepts json.Number from the decoder along with native Go integers,
// so hand-built objects work in tests and callers.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if isFractional(n) {
			return 0, false
		}
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// asNumber unwraps a decoded JSON number into a Value of kind KindInt
// or KindFloat. json.Number literals with a decimal point or exponent
// are fractional; everything else is integral.
func asNumber(v any) (Value, bool) {
	switch n := v.(type) {
	case json.Number:
		if isFractional(n) {
			f, err := n.Float64()
			if err != nil {
				return Value{}, false
			}
			return FloatValue(f), true
		}
		i, err := n.Int64()
		if err != nil {
			return Value{}, false
		}
		return IntValue(i), true
	case int:
		return IntValue(int64(n)), true
	case int64:
		return IntValue(n), true
	case float64:
		return FloatValue(n), true
	default:
		return Value{}, false
	}
}

func isFractional(n json.Number) bool {
	return strings.ContainsAny(n.String(), ".eE")
}
