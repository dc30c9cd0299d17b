package models

// HeadingSource records where a heading value came from. It is kept for display only
// and never changes how a search behaves.
type HeadingSource string

const (
	HeadingSourceSensor  HeadingSource = "sensor"
	HeadingSourceManual  HeadingSource = "manual"
	HeadingSourceDefault HeadingSource = "default"
)

// Heading is a compass direction in degrees clockwise from true north, in [0, 360).
type Heading struct {
	Degrees  float64       `json:"heading"`
	Accuracy *float64      `json:"accuracy,omitempty"`
	Source   HeadingSource `json:"source"`
}

// ParseHeadingSource maps user input to a known source, defaulting to manual.
func ParseHeadingSource(s string) HeadingSource {
	switch HeadingSource(s) {
	case HeadingSourceSensor:
		return HeadingSourceSensor
	case HeadingSourceDefault:
		return HeadingSourceDefault
	default:
		return HeadingSourceManual
	}
}
