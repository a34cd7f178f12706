package geomath

import (
	"errors"
	"math"
	"testing"
)

func TestHaversine_IdenticalPointsAreZero(t *testing.T) {
	t.Parallel()

	points := [][2]float64{
		{0, 0},
		{37.7749, -122.4194},
		{-90, 180},
		{90, -180},
	}
	for _, p := range points {
		d, err := Haversine(p[0], p[1], p[0], p[1])
		if err != nil {
			t.Fatalf("Haversine(%v): %v", p, err)
		}
		if d != 0 {
			t.Fatalf("distance for identical point %v = %g, want 0", p, d)
		}
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	t.Parallel()

	d1, err := Haversine(37.7749, -122.4194, 40.7128, -74.0060)
	if err != nil {
		t.Fatalf("Haversine: %v", err)
	}
	d2, err := Haversine(40.7128, -74.0060, 37.7749, -122.4194)
	if err != nil {
		t.Fatalf("Haversine: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("not symmetric: %g vs %g", d1, d2)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	t.Parallel()

	// San Francisco to New York City.
	d, err := Haversine(37.7749, -122.4194, 40.7128, -74.0060)
	if err != nil {
		t.Fatalf("Haversine: %v", err)
	}
	if math.Abs(d-4129) > 5 {
		t.Fatalf("SF-NYC = %g km, want 4129 +/- 5", d)
	}
}

func TestHaversine_Antipodal(t *testing.T) {
	t.Parallel()

	// Half the Earth's circumference, within a kilometre.
	d, err := Haversine(0, 0, 0, 180)
	if err != nil {
		t.Fatalf("Haversine: %v", err)
	}
	want := math.Pi * EarthRadiusKm
	if math.Abs(d-want) > 1 {
		t.Fatalf("antipodal = %g km, want %g", d, want)
	}
}

func TestHaversine_InvalidCoordinates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"lat too high", 91, 0, 0, 0},
		{"lat too low", -91, 0, 0, 0},
		{"lon too high", 0, 181, 0, 0},
		{"lon too low", 0, -181, 0, 0},
		{"second point lat", 0, 0, 91, 0},
		{"second point lon", 0, 0, 0, 181},
	}
	for _, tc := range cases {
		_, err := Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		var ice *InvalidCoordinateError
		if !errors.As(err, &ice) {
			t.Fatalf("%s: error type %T, want InvalidCoordinateError", tc.name, err)
		}
	}
}

func TestValidateCoordinate_BoundsInclusive(t *testing.T) {
	t.Parallel()

	if err := ValidateCoordinate(90, 180); err != nil {
		t.Fatalf("90/180 should be valid: %v", err)
	}
	if err := ValidateCoordinate(-90, -180); err != nil {
		t.Fatalf("-90/-180 should be valid: %v", err)
	}
}
