// Package geo holds great-circle helpers for scan history checks.
package geo

import (
	"math"

	"oceanguard/internal/model"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the Haversine distance between a and b in kilometers.
// ok is false when either coordinate is missing or not Valid.
func DistanceKm(a, b *model.Coordinate) (km float64, ok bool) {
	if !Valid(a) || !Valid(b) {
		return 0, false
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c, true
}

// Valid reports whether c is present, finite and within latitude
// [-90, 90] and longitude [-180, 180].
func Valid(c *model.Coordinate) bool {
	if c == nil {
		return false
	}
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
