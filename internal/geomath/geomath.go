package geomath

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distance
// (kilometres).
const EarthRadiusKm = 6371.0

// InvalidCoordinateError reports a latitude or longitude outside its
// valid range.
type InvalidCoordinateError struct {
	Field string // "latitude" or "longitude"
	Value float64
}

func (e *InvalidCoordinateError) Error() string {
	if e.Field == "latitude" {
		return fmt.Sprintf("invalid latitude %g: must be between -90 and 90 degrees", e.Value)
	}
	return fmt.Sprintf("invalid longitude %g: must be between -180 and 180 degrees", e.Value)
}

// ValidateCoordinate checks a lat/lon pair against the WGS 84 ranges.
func ValidateCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return &InvalidCoordinateError{Field: "latitude", Value: lat}
	}
	if lon < -180 || lon > 180 {
		return &InvalidCoordinateError{Field: "longitude", Value: lon}
	}
	return nil
}

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees. The atan2 form is used for numerical
// stability near antipodal points. The result is symmetric in the two
// points and exactly zero for identical points.
func Haversine(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinate(lat2, lon2); err != nil {
		return 0, err
	}

	rlat1 := lat1 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	a := sinLat*sinLat + math.Cos(rlat1)*math.Cos(rlat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c, nil
}
