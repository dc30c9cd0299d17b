// Package geodesy projects points along a compass bearing and measures distances on a
// spherical Earth. All functions are pure.
package geodesy

import (
	"math"

	"overyonder.app/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by every calculation in this package.
const EarthRadiusKm = 6371.0

// mercatorEpsilon is the smallest change in Mercator latitude treated as non-zero.
const mercatorEpsilon = 1e-10

// maxMercatorLat keeps tan(lat/2+π/4) finite when a path runs into a pole.
const maxMercatorLat = math.Pi/2 - 1e-9

// Project returns the point reached by travelling distanceKm from origin along a
// rhumb line (constant compass bearing) at headingDeg.
//
// Latitudes that would run past a pole are reflected back; the longitude is
// normalized to (-180, 180]. Out-of-range inputs are the caller's problem.
func Project(origin models.Coordinate, distanceKm, headingDeg float64) models.Coordinate {
	heading := NormalizeHeading(headingDeg)
	d := distanceKm / EarthRadiusKm
	lat1 := toRadians(origin.Latitude)
	lon1 := toRadians(origin.Longitude)

	// Due east or west follows a parallel, where the Mercator delta is zero.
	if heading == 90 || heading == 270 {
		dLon := d / math.Cos(lat1)
		if heading == 270 {
			dLon = -dLon
		}
		return models.Coordinate{
			Latitude:  origin.Latitude,
			Longitude: normalizeLongitude(toDegrees(lon1 + dLon)),
		}
	}

	brng := toRadians(heading)
	dLat := d * math.Cos(brng)
	lat2 := lat1 + dLat

	latM := math.Max(math.Min(lat2, maxMercatorLat), -maxMercatorLat)
	dPhi := math.Log(math.Tan(latM/2+math.Pi/4) / math.Tan(lat1/2+math.Pi/4))

	q := math.Cos(lat1)
	if math.Abs(dPhi) > mercatorEpsilon {
		q = (latM - lat1) / dPhi
	}
	dLon := d * math.Sin(brng) / q

	if math.Abs(lat2) > math.Pi/2 {
		if lat2 > 0 {
			lat2 = math.Pi - lat2
		} else {
			lat2 = -math.Pi - lat2
		}
	}

	return models.Coordinate{
		Latitude:  toDegrees(lat2),
		Longitude: normalizeLongitude(toDegrees(lon1 + dLon)),
	}
}

// DistanceBetween returns the great-circle distance in kilometers between a and b
// using the haversine formula.
func DistanceBetween(a, b models.Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// normalizeLongitude maps any longitude in degrees into (-180, 180].
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	return lon - 180
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
