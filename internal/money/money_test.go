package money

import "testing"

func TestToCents(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{
			name: "whole amount",
			in:   10.00,
			want: 1000,
		},
		{
			name: "two decimals",
			in:   5.50,
			want: 550,
		},
		{
			name: "price ending in 99",
			in:   19.99,
			want: 1999,
		},
		{
			name: "half of minor unit rounds up",
			in:   0.125,
			want: 13,
		},
		{
			name: "zero",
			in:   0,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCents(tt.in); got != tt.want {
				t.Fatalf("ToCents(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromCents(t *testing.T) {
	if got := FromCents(2550); got != 25.50 {
		t.Fatalf("FromCents(2550) = %v, want 25.50", got)
	}
	if got := FromCents(0); got != 0 {
		t.Fatalf("FromCents(0) = %v, want 0", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []float64{0.01, 1.10, 10.00, 25.50, 99.99} {
		if got := FromCents(ToCents(v)); got != v {
			t.Fatalf("round trip of %v yielded %v", v, got)
		}
	}
}

func TestToCents_TwoDecimalsExact(t *testing.T) {
	// Контракт: для любой суммы с двумя десятичными знаками преобразование
	// в минорные единицы точное, несмотря на двоичное представление float64.
	for c := int64(0); c < 10000; c++ {
		if got := ToCents(FromCents(c)); got != c {
			t.Fatalf("ToCents(FromCents(%d)) = %d", c, got)
		}
	}
}
