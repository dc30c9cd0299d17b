package models

import "math"

// DestinationInfo is the result of a successful heading search. Values are never
// mutated once created.
type DestinationInfo struct {
	Name       string     `json:"name"`
	DistanceKm float64    `json:"distance"`
	Location   Coordinate `json:"location"`
	IsMaritime bool       `json:"isMaritime"`
}

// RoundDistance rounds a distance in kilometers to one decimal place.
func RoundDistance(km float64) float64 {
	return math.Round(km*10) / 10
}
