package models

// Coordinate is a WGS 84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a Coordinate as reported by a device, with an optional accuracy in meters.
type Position struct {
	Coordinate
	Accuracy *float64 `json:"accuracy,omitempty"`
}
