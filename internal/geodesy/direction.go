package geodesy

import (
	"math"

	"overyonder.app/internal/models"
)

// NormalizeHeading maps any angle in degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// BearingBetween calculates the initial great-circle bearing in degrees from a to b
func BearingBetween(a, b models.Coordinate) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	deltaLon := toRadians(b.Longitude - a.Longitude)

	y := math.Sin(deltaLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLon)

	return NormalizeHeading(toDegrees(math.Atan2(y, x)))
}

// BearingToCompass converts a bearing to an 8-point compass direction
func BearingToCompass(bearing float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	index := int((NormalizeHeading(bearing)+22.5)/45.0) % 8
	return directions[index]
}
