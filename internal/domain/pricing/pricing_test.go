package pricing

import (
	"testing"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
)

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCompute_PriceRangeScenario(t *testing.T) {
	q := Compute(Stay{
		CheckIn:  date(2024, time.June, 1),
		CheckOut: date(2024, time.June, 3),
		Guests:   1,
	}, catalog.RangePrice(100, nil), nil)

	if q.Nights != 2 {
		t.Fatalf("expected 2 nights, got %d", q.Nights)
	}
	if q.BasePrice != 100 || q.GuestSurcharge != 0 {
		t.Fatalf("expected base 100 and no surcharge, got %+v", q)
	}
	if q.Subtotal != 200 || q.Tax != 42 || q.Total != 242 {
		t.Fatalf("expected 200/42/242, got %+v", q)
	}
}

func TestCompute_RoomTypeSurchargeScenario(t *testing.T) {
	roomTypes := []catalog.RoomType{{Type: "Standard", Price: 80, Capacity: 2}}

	q := Compute(Stay{
		CheckIn:  date(2024, time.June, 1),
		CheckOut: date(2024, time.June, 3),
		Guests:   3,
	}, catalog.PriceRange{}, roomTypes)

	if q.BasePrice != 80 {
		t.Fatalf("expected base 80 from first room type, got %v", q.BasePrice)
	}
	if q.GuestSurcharge != 20 {
		t.Fatalf("expected surcharge 20, got %v", q.GuestSurcharge)
	}
	if q.Subtotal != 200 || q.Tax != 42 || q.Total != 242 {
		t.Fatalf("expected 200/42/242, got %+v", q)
	}
}

func TestCompute_BasePriceOrder(t *testing.T) {
	upper := 300.0
	selected := &catalog.RoomType{Type: "Suite", Price: 150, Capacity: 2}
	roomTypes := []catalog.RoomType{{Type: "Standard", Price: 80, Capacity: 2}}
	stay := Stay{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 2), Guests: 1}

	tests := []struct {
		name       string
		selected   *catalog.RoomType
		roomTypes  []catalog.RoomType
		priceRange catalog.PriceRange
		want       float64
	}{
		{name: "selected room type", selected: selected, roomTypes: roomTypes, priceRange: catalog.RangePrice(100, &upper), want: 150},
		{name: "first room type", roomTypes: roomTypes, priceRange: catalog.RangePrice(100, &upper), want: 80},
		{name: "range min", priceRange: catalog.RangePrice(100, &upper), want: 100},
		{name: "numeric", priceRange: catalog.NumericPrice(95), want: 95},
		{name: "nothing", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stay
			s.RoomType = tt.selected
			q := Compute(s, tt.priceRange, tt.roomTypes)
			if q.BasePrice != tt.want {
				t.Fatalf("expected base %v, got %v", tt.want, q.BasePrice)
			}
		})
	}
}

func TestCompute_NoSurchargeWithoutRoomType(t *testing.T) {
	q := Compute(Stay{
		CheckIn:  date(2024, 6, 1),
		CheckOut: date(2024, 6, 2),
		Guests:   9,
	}, catalog.NumericPrice(100), nil)

	if q.GuestSurcharge != 0 {
		t.Fatalf("expected no surcharge under price range pricing, got %v", q.GuestSurcharge)
	}
}

func TestCompute_SurchargeOnlyAboveCapacity(t *testing.T) {
	rt := &catalog.RoomType{Type: "Double", Price: 60, Capacity: 2}
	for guests := 1; guests <= 4; guests++ {
		q := Compute(Stay{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 2), Guests: guests, RoomType: rt}, catalog.PriceRange{}, nil)
		want := 0.0
		if guests > 2 {
			want = float64(guests-2) * 60 * GuestSurchargeRate
		}
		if q.GuestSurcharge != want {
			t.Fatalf("guests=%d: expected surcharge %v, got %v", guests, want, q.GuestSurcharge)
		}
	}
}

func TestCompute_ZeroWithoutDates(t *testing.T) {
	rt := &catalog.RoomType{Type: "Double", Price: 60, Capacity: 2}
	tests := []Stay{
		{Guests: 3, RoomType: rt},
		{CheckIn: date(2024, 6, 1), Guests: 3, RoomType: rt},
		{CheckOut: date(2024, 6, 3), Guests: 3, RoomType: rt},
	}

	for _, stay := range tests {
		q := Compute(stay, catalog.NumericPrice(100), nil)
		if q != (Quote{}) {
			t.Fatalf("expected zero quote, got %+v", q)
		}
	}
}

func TestNights(t *testing.T) {
	in := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		out  time.Time
		want int
	}{
		{name: "same instant", out: in, want: 0},
		{name: "one hour", out: in.Add(time.Hour), want: 1},
		{name: "exactly one day", out: in.Add(24 * time.Hour), want: 1},
		{name: "26 hours", out: in.Add(26 * time.Hour), want: 2},
		{name: "three days", out: in.AddDate(0, 0, 3), want: 3},
		{name: "reversed", out: in.Add(-48 * time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.out
			if got := Nights(&in, &out); got != tt.want {
				t.Fatalf("expected %d nights, got %d", tt.want, got)
			}
		})
	}
}

func TestCompute_TaxAndTotalConsistency(t *testing.T) {
	prices := []float64{49.99, 80, 99.95, 133.33, 250.1}
	for _, price := range prices {
		for nights := 0; nights <= 5; nights++ {
			in := date(2024, 6, 1)
			out := in.AddDate(0, 0, nights)
			q := Compute(Stay{CheckIn: in, CheckOut: &out, Guests: 1}, catalog.NumericPrice(price), nil)

			if q.Tax != RoundCents(q.Subtotal*VATRate) {
				t.Fatalf("price=%v nights=%d: tax %v not rounded from subtotal %v", price, nights, q.Tax, q.Subtotal)
			}
			if q.Total != q.Subtotal+q.Tax {
				t.Fatalf("price=%v nights=%d: total %v != subtotal %v + tax %v", price, nights, q.Total, q.Subtotal, q.Tax)
			}
			if nights == 0 && (q.Subtotal != 0 || q.Tax != 0 || q.Total != 0) {
				t.Fatalf("expected zero amounts for zero nights, got %+v", q)
			}
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	rt := &catalog.RoomType{Type: "Triple", Price: 77.7, Capacity: 1.5}
	stay := Stay{CheckIn: date(2024, 6, 1), CheckOut: date(2024, 6, 4), Guests: 3, RoomType: rt}

	first := Compute(stay, catalog.PriceRange{}, nil)
	for i := 0; i < 100; i++ {
		if got := Compute(stay, catalog.PriceRange{}, nil); got != first {
			t.Fatalf("expected identical quotes, got %+v and %+v", first, got)
		}
	}
}

func TestClampGuests(t *testing.T) {
	rt := &catalog.RoomType{Type: "Double", Price: 60, Capacity: 2}
	tests := []struct {
		name     string
		n        int
		selected *catalog.RoomType
		want     int
	}{
		{name: "below minimum", n: 0, want: 1},
		{name: "default ceiling", n: 11, want: 10},
		{name: "within default", n: 6, want: 6},
		{name: "room ceiling", n: 5, selected: rt, want: 4},
		{name: "within room", n: 3, selected: rt, want: 3},
		{name: "fractional capacity", n: 9, selected: &catalog.RoomType{Type: "Nook", Price: 10, Capacity: 0.4}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampGuests(tt.n, tt.selected); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
