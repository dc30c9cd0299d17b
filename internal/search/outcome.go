package search

import (
	"fmt"

	"overyonder.app/internal/models"
)

// Status is the terminal state of a search.
type Status int

const (
	StatusFound Status = iota + 1
	StatusExhausted
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText lets Status appear as its name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is returned once per search.
type Outcome struct {
	Status      Status                  `json:"status"`
	Destination *models.DestinationInfo `json:"destination,omitempty"`
	Attempts    int                     `json:"attempts"`
	// LastDistanceKm is the nominal distance of the last step taken.
	LastDistanceKm float64 `json:"lastDistanceKm"`
	Err            error   `json:"-"`
}

// Message is the user-facing summary of the outcome.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusFound:
		return fmt.Sprintf("Found %s at %skm", o.Destination.Name, formatKm(o.Destination.DistanceKm))
	case StatusExhausted:
		return fmt.Sprintf("No land locations found within %skm", formatKm(o.LastDistanceKm))
	case StatusCancelled:
		return "Search superseded"
	default:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "Search failed"
	}
}

// ProgressEvent reports one step of a running search.
type ProgressEvent struct {
	Attempt     int     `json:"attempt"`
	MaxAttempts int     `json:"maxAttempts"`
	DistanceKm  float64 `json:"distanceKm"`
	Status      string  `json:"status"`
}
