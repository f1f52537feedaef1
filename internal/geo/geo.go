package geo

import (
	"math"

	"georem/internal/domain"
)

// EarthRadiusM is the mean earth radius used by the haversine formula.
const EarthRadiusM = 6371000.0

// Distance returns the great-circle distance in meters between two WGS84
// coordinates. The atan2 form is safe across the ±180° seam, at the poles and
// for antipodal points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// Floating point can push a just past 1 for near-antipodal points.
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// IsInside reports whether the sample lies within the fence radius. A point
// exactly on the boundary counts as inside.
func IsInside(sample domain.LocationSample, rec domain.GeofenceRecord) bool {
	return Distance(sample.Lat, sample.Lng, rec.Lat, rec.Lng) <= rec.RadiusM
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
