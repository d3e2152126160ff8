package catalog

import (
	"encoding/json"
	"math"
	"strings"
)

// maxDecodeDepth bounds how many layers of JSON string encoding are unwrapped.
const maxDecodeDepth = 2

// ParseRoomTypes normalises an untrusted room type list.
//
// raw may be nil, a slice of room-type-like values, a []RoomType, or a JSON
// document (string, []byte, json.RawMessage) encoding such a list. Entries
// are kept only when type is a non-empty string, price is a finite number
// and capacity is a finite positive number. Input order is preserved and the
// function never fails: anything unusable produces an empty list.
func ParseRoomTypes(raw any) []RoomType {
	items := asList(raw, 0)
	out := make([]RoomType, 0, len(items))
	for _, item := range items {
		if rt, ok := toRoomType(item); ok {
			out = append(out, rt)
		}
	}
	return out
}

// ParsePriceRange classifies a loosely typed price_range value.
func ParsePriceRange(raw any) PriceRange {
	return priceRange(raw, 0)
}

func priceRange(raw any, depth int) PriceRange {
	switch v := raw.(type) {
	case nil:
		return PriceRange{}
	case PriceRange:
		return v
	case *PriceRange:
		if v == nil {
			return PriceRange{}
		}
		return *v
	case map[string]any:
		lower, ok := toNumber(v["min"])
		if !ok {
			return PriceRange{}
		}
		var upper *float64
		if m, ok := toNumber(v["max"]); ok {
			upper = &m
		}
		return RangePrice(lower, upper)
	case string, []byte, json.RawMessage:
		decoded, ok := decode(v, depth)
		if !ok {
			return PriceRange{}
		}
		return priceRange(decoded, depth+1)
	default:
		if n, ok := toNumber(v); ok {
			return NumericPrice(n)
		}
		return PriceRange{}
	}
}

func asList(raw any, depth int) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []RoomType:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case RoomTypes:
		return asList([]RoomType(v), depth)
	case string, []byte, json.RawMessage:
		decoded, ok := decode(v, depth)
		if !ok {
			return nil
		}
		return asList(decoded, depth+1)
	default:
		return nil
	}
}

// decode unwraps one layer of JSON. A top-level JSON string is returned as a
// Go string so callers can recurse into double-encoded payloads.
func decode(raw any, depth int) (any, bool) {
	if depth > maxDecodeDepth {
		return nil, false
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func toRoomType(item any) (RoomType, bool) {
	switch v := item.(type) {
	case RoomType:
		return validRoomType(v.Type, v.Price, v.Capacity)
	case *RoomType:
		if v == nil {
			return RoomType{}, false
		}
		return validRoomType(v.Type, v.Price, v.Capacity)
	case map[string]any:
		name, _ := v["type"].(string)
		price, ok := toNumber(v["price"])
		if !ok {
			return RoomType{}, false
		}
		capacity, ok := toNumber(v["capacity"])
		if !ok {
			return RoomType{}, false
		}
		return validRoomType(name, price, capacity)
	default:
		return RoomType{}, false
	}
}

func validRoomType(name string, price, capacity float64) (RoomType, bool) {
	if name == "" || !isFinite(price) || !isFinite(capacity) || capacity <= 0 {
		return RoomType{}, false
	}
	return RoomType{Type: name, Price: price, Capacity: capacity}, true
}

// toNumber accepts numeric values only; numeric-looking strings are rejected.
func toNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int32:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	return n, isFinite(n)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
