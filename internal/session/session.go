// Package session keeps per-user heading-lock state and runs destination searches
// against it.
package session

import (
	"errors"
	"time"

	"overyonder.app/internal/models"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrNoPosition       = errors.New("current position unavailable")
	ErrHeadingNotLocked = errors.New("heading is not locked")
	ErrInvalidIncrement = errors.New("distance increment must be positive")
)

// Session is the state of one user: where they are, where they point and the
// destinations found so far along the locked heading.
type Session struct {
	ID            string                   `json:"id"`
	Position      *models.Position         `json:"position,omitempty"`
	Heading       *models.Heading          `json:"heading,omitempty"`
	HeadingLocked bool                     `json:"headingLocked"`
	IncrementKm   float64                  `json:"incrementKm"`
	Destinations  []models.DestinationInfo `json:"destinations"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// NextDistanceKm is where the next search starts.
func (s *Session) NextDistanceKm() float64 {
	return float64(len(s.Destinations)+1) * s.IncrementKm
}

func (s *Session) clone() *Session {
	c := *s
	if s.Position != nil {
		p := *s.Position
		c.Position = &p
	}
	if s.Heading != nil {
		h := *s.Heading
		c.Heading = &h
	}
	c.Destinations = append([]models.DestinationInfo(nil), s.Destinations...)
	return &c
}
