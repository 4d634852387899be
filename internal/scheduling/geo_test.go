package scheduling

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	sydneyCBD := Coordinates{Lat: -33.8688, Lng: 151.2093}
	parramatta := Coordinates{Lat: -33.8150, Lng: 151.0011}
	melbourne := Coordinates{Lat: -37.8136, Lng: 144.9631}

	tests := []struct {
		name      string
		a, b      Coordinates
		wantKm    float64
		tolerance float64
	}{
		{"same point", sydneyCBD, sydneyCBD, 0, 0.001},
		{"sydney to parramatta", sydneyCBD, parramatta, 20, 2},
		{"sydney to melbourne", sydneyCBD, melbourne, 713, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %.2f, want %.2f ± %.2f", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Coordinates{Lat: -33.77, Lng: 150.93}
	b := Coordinates{Lat: -33.87, Lng: 151.21}
	if d1, d2 := HaversineKm(a, b), HaversineKm(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Errorf("expected symmetric distance, got %f and %f", d1, d2)
	}
}
