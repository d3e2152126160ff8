package catalog

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestParseRoomTypes_FiltersMalformedEntries(t *testing.T) {
	raw := []any{
		map[string]any{"type": "Standard", "price": 80.0, "capacity": 2.0},
		map[string]any{"type": "", "price": 90.0, "capacity": 2.0},
		map[string]any{"type": "Suite", "price": "120", "capacity": 2.0},
		map[string]any{"type": "Loft", "price": 150.0, "capacity": 0.0},
		map[string]any{"type": "Attic", "price": math.Inf(1), "capacity": 2.0},
		map[string]any{"type": "Dorm", "price": 25.0},
		"not an object",
		nil,
		map[string]any{"type": "Family", "price": 140.0, "capacity": 4.0},
	}

	got := ParseRoomTypes(raw)
	want := []RoomType{
		{Type: "Standard", Price: 80, Capacity: 2},
		{Type: "Family", Price: 140, Capacity: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseRoomTypes_DecodesStrings(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int
	}{
		{name: "json string", raw: `[{"type":"Standard","price":80,"capacity":2}]`, want: 1},
		{name: "json bytes", raw: []byte(`[{"type":"Standard","price":80,"capacity":2}]`), want: 1},
		{name: "double encoded", raw: `"[{\"type\":\"Standard\",\"price\":80,\"capacity\":2}]"`, want: 1},
		{name: "malformed json", raw: `[{"type":"Standard",`, want: 0},
		{name: "json object", raw: `{"type":"Standard","price":80,"capacity":2}`, want: 0},
		{name: "empty string", raw: "", want: 0},
		{name: "nil", raw: nil, want: 0},
		{name: "number", raw: 42, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRoomTypes(tt.raw)
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d room types, got %d (%+v)", tt.want, len(got), got)
			}
		})
	}
}

func TestParseRoomTypes_Idempotent(t *testing.T) {
	inputs := []any{
		`[{"type":"Standard","price":80,"capacity":2},{"type":"Bad","price":1,"capacity":-1}]`,
		[]any{map[string]any{"type": "Suite", "price": 200.5, "capacity": 3.0}},
		`not json`,
		nil,
	}

	for _, in := range inputs {
		once := ParseRoomTypes(in)
		twice := ParseRoomTypes(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("parse not idempotent for %v: %+v vs %+v", in, once, twice)
		}
	}
}

func TestParsePriceRange(t *testing.T) {
	upper := 250.0
	tests := []struct {
		name string
		raw  any
		want PriceRange
	}{
		{name: "number", raw: 95.0, want: NumericPrice(95)},
		{name: "range", raw: map[string]any{"min": 100.0, "max": 250.0}, want: RangePrice(100, &upper)},
		{name: "range without max", raw: map[string]any{"min": 100.0}, want: RangePrice(100, nil)},
		{name: "range without min", raw: map[string]any{"max": 250.0}, want: PriceRange{}},
		{name: "encoded range", raw: `{"min":100,"max":250}`, want: RangePrice(100, &upper)},
		{name: "garbage", raw: "cheap", want: PriceRange{}},
		{name: "nil", raw: nil, want: PriceRange{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePriceRange(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestAccommodationUnmarshal_ResolvesVariants(t *testing.T) {
	body := `{
		"id": 7,
		"name": "Canal House",
		"price_range": {"min": 100, "max": 180},
		"room_types": "[{\"type\":\"Standard\",\"price\":80,\"capacity\":2},{\"type\":\"\"}]",
		"booking_conditions": ["No smoking"]
	}`

	var acc Accommodation
	if err := json.Unmarshal([]byte(body), &acc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if acc.PriceRange.Kind != PriceRanged || acc.PriceRange.Min != 100 {
		t.Fatalf("unexpected price range %+v", acc.PriceRange)
	}
	if len(acc.RoomTypes) != 1 || acc.RoomTypes[0].Type != "Standard" {
		t.Fatalf("unexpected room types %+v", acc.RoomTypes)
	}
	if !acc.HasPricing() {
		t.Fatal("expected pricing to be available")
	}
}

func TestAccommodationUnmarshal_NoPricing(t *testing.T) {
	var acc Accommodation
	if err := json.Unmarshal([]byte(`{"id": 1, "name": "Hut", "price_range": null}`), &acc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if acc.HasPricing() {
		t.Fatalf("expected no pricing, got %+v / %+v", acc.PriceRange, acc.RoomTypes)
	}
}

func TestPriceRangeMarshal(t *testing.T) {
	upper := 180.0
	tests := []struct {
		in   PriceRange
		want string
	}{
		{in: NumericPrice(90), want: `90`},
		{in: RangePrice(100, &upper), want: `{"min":100,"max":180}`},
		{in: RangePrice(100, nil), want: `{"min":100}`},
		{in: PriceRange{}, want: `null`},
	}

	for _, tt := range tests {
		got, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(got) != tt.want {
			t.Fatalf("expected %s, got %s", tt.want, got)
		}
	}
}
