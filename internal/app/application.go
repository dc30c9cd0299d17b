package app

import (
	"context"
	"log/slog"

	"overyonder.app/internal/appconf"
	"overyonder.app/internal/geocode"
	"overyonder.app/internal/models"
	"overyonder.app/internal/search"
	"overyonder.app/internal/session"
)

// Geocoder answers one-off lookups outside of a search.
type Geocoder interface {
	Classify(ctx context.Context, coord models.Coordinate) (geocode.Classification, error)
	Describe(ctx context.Context, coord models.Coordinate) (string, error)
}

// Broadcaster mirrors a session's search events to other listeners.
type Broadcaster interface {
	Reporter(sessionID string) search.Reporter
}

// Application holds the dependencies shared by HTTP handlers, helpers and middleware.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Sessions *session.Manager
	Geocoder Geocoder
	// Broadcaster is nil when NATS is not configured.
	Broadcaster Broadcaster
}
