// Package search walks outward along a compass heading until the reverse-geocoding
// oracle reports land.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"overyonder.app/internal/geocode"
	"overyonder.app/internal/geodesy"
	"overyonder.app/internal/logging"
	"overyonder.app/internal/metrics"
	"overyonder.app/internal/models"
)

// DefaultMaxAttempts bounds the number of distance steps in one search.
const DefaultMaxAttempts = 50

// ErrInvalidRequest is returned in a failed Outcome when the request cannot be searched.
var ErrInvalidRequest = errors.New("invalid search request")

// Classifier decides whether a coordinate is land.
type Classifier interface {
	Classify(ctx context.Context, coord models.Coordinate) (geocode.Classification, error)
}

// Request describes one search. It is not modified by the engine.
type Request struct {
	Origin          models.Coordinate
	Heading         float64
	StartDistanceKm float64
	IncrementKm     float64
}

// Validate checks the request against the ranges the engine relies on.
func (r Request) Validate() error {
	var problems []string
	if r.Origin.Latitude < -90 || r.Origin.Latitude > 90 || math.IsNaN(r.Origin.Latitude) {
		problems = append(problems, "latitude must be between -90 and 90")
	}
	if r.Origin.Longitude < -180 || r.Origin.Longitude > 180 || math.IsNaN(r.Origin.Longitude) {
		problems = append(problems, "longitude must be between -180 and 180")
	}
	if r.Heading < 0 || r.Heading >= 360 || math.IsNaN(r.Heading) {
		problems = append(problems, "heading must be in [0, 360)")
	}
	if !(r.StartDistanceKm > 0) || math.IsInf(r.StartDistanceKm, 0) {
		problems = append(problems, "start distance must be positive")
	}
	if !(r.IncrementKm > 0) || math.IsInf(r.IncrementKm, 0) {
		problems = append(problems, "increment must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, problems)
	}
	return nil
}

// Engine runs heading searches. It is safe for concurrent use; oracle access is
// serialized by the classifier's gate.
type Engine struct {
	classifier  Classifier
	maxAttempts int
	logger      *slog.Logger
}

// NewEngine creates an engine. maxAttempts <= 0 selects DefaultMaxAttempts.
func NewEngine(classifier Classifier, maxAttempts int, logger *slog.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		classifier:  classifier,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "search_engine")),
	}
}

// MaxAttempts returns the attempt budget of each search.
func (e *Engine) MaxAttempts() int {
	return e.maxAttempts
}

// Search steps outward from req.Origin until land is found, the attempt budget runs
// out or ctx is cancelled.
//
// Each step emits one progress event before classifying. Water and classification
// failures both advance the distance. A cancelled search reports nothing further and
// returns StatusCancelled; every other search delivers exactly one outcome to rep.
func (e *Engine) Search(ctx context.Context, req Request, rep Reporter) Outcome {
	if rep == nil {
		rep = NopReporter{}
	}
	start := time.Now()

	finish := func(out Outcome) Outcome {
		metrics.ObserveSearch(out.Status.String(), out.Attempts)
		logging.LogOperation(e.logger, "search_finished",
			slog.String("status", out.Status.String()),
			slog.Int("attempts", out.Attempts),
			slog.Float64("last_distance_km", out.LastDistanceKm),
			slog.Duration("duration", time.Since(start)))
		if out.Status != StatusCancelled {
			rep.Outcome(out)
		}
		return out
	}

	if err := req.Validate(); err != nil {
		return finish(Outcome{Status: StatusFailed, Err: err})
	}

	distance := req.StartDistanceKm
	for attempt := 1; attempt <= e.maxAttempts; attempt, distance = attempt+1, distance+req.IncrementKm {
		if ctx.Err() != nil {
			return finish(Outcome{Status: StatusCancelled, Attempts: attempt - 1, LastDistanceKm: distance - req.IncrementKm, Err: ctx.Err()})
		}

		rep.Progress(ProgressEvent{
			Attempt:     attempt,
			MaxAttempts: e.maxAttempts,
			DistanceKm:  distance,
			Status:      progressStatus(distance, attempt, e.maxAttempts),
		})

		candidate := geodesy.Project(req.Origin, distance, req.Heading)
		result, err := e.classifier.Classify(ctx, candidate)

		if ctx.Err() != nil {
			return finish(Outcome{Status: StatusCancelled, Attempts: attempt, LastDistanceKm: distance, Err: ctx.Err()})
		}

		if err != nil {
			logging.LogError(e.logger, "classification failed, advancing", err,
				slog.Int("attempt", attempt),
				slog.Float64("distance_km", distance),
				slog.String("kind", geocode.KindOf(err).String()))
			continue
		}

		if !result.IsLand {
			e.logger.Debug("candidate is water",
				slog.Int("attempt", attempt),
				slog.Float64("distance_km", distance),
				slog.String("kind", string(result.Kind)))
			continue
		}

		return finish(Outcome{
			Status: StatusFound,
			Destination: &models.DestinationInfo{
				Name:       result.PrimaryName(),
				DistanceKm: models.RoundDistance(geodesy.DistanceBetween(req.Origin, candidate)),
				Location:   candidate,
				IsMaritime: false,
			},
			Attempts:       attempt,
			LastDistanceKm: distance,
		})
	}

	return finish(Outcome{
		Status:         StatusExhausted,
		Attempts:       e.maxAttempts,
		LastDistanceKm: distance - req.IncrementKm,
	})
}

func progressStatus(distance float64, attempt, max int) string {
	return fmt.Sprintf("Searching at %skm (attempt %d/%d)", formatKm(distance), attempt, max)
}

// formatKm prints whole kilometers without decimals and anything else to 0.1 km.
func formatKm(km float64) string {
	if km == math.Trunc(km) {
		return fmt.Sprintf("%.0f", km)
	}
	return fmt.Sprintf("%.1f", km)
}
