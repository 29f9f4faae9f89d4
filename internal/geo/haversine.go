// Package geo computes great-circle distances between observation
// coordinates and a query center.
package geo

import (
	"math"

	"bird-map-service/internal/domain"
)

// EarthRadiusKM is the IUGG mean earth radius.
const EarthRadiusKM = 6371.0088

// DistanceKM returns the haversine great-circle distance in kilometers
// between (lat, lon) and (centerLat, centerLon), both in degrees.
func DistanceKM(lat, lon, centerLat, centerLon float64) float64 {
	latR := radians(lat)
	centerLatR := radians(centerLat)
	dLat := latR - centerLatR
	dLon := radians(lon) - radians(centerLon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(centerLatR)*math.Cos(latR)*sinLon*sinLon

	// Clamp: floating-point error can push sqrt(a) fractionally above 1 for
	// near-antipodal points, which would take asin out of its domain.
	return 2 * EarthRadiusKM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// DistancesKM returns the distance from center for each point, in order.
// Batch form of DistanceKM for annotating whole result sets at once.
// Empty input yields an empty (non-nil) slice.
func DistancesKM(points []domain.Geo, center domain.Geo) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = DistanceKM(p.Lat, p.Lon, center.Lat, center.Lon)
	}
	return out
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
