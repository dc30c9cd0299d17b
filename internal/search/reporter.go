package search

import "log/slog"

// Reporter receives the progress of one search: zero or more progress events in
// increasing attempt order, then exactly one outcome.
type Reporter interface {
	Progress(ProgressEvent)
	Outcome(Outcome)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Progress(ProgressEvent) {}
func (NopReporter) Outcome(Outcome)        {}

// ReporterFuncs adapts plain functions; nil fields are skipped.
type ReporterFuncs struct {
	OnProgress func(ProgressEvent)
	OnOutcome  func(Outcome)
}

func (r ReporterFuncs) Progress(ev ProgressEvent) {
	if r.OnProgress != nil {
		r.OnProgress(ev)
	}
}

func (r ReporterFuncs) Outcome(out Outcome) {
	if r.OnOutcome != nil {
		r.OnOutcome(out)
	}
}

// MultiReporter fans events out to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Progress(ev ProgressEvent) {
	for _, r := range m {
		r.Progress(ev)
	}
}

func (m MultiReporter) Outcome(out Outcome) {
	for _, r := range m {
		r.Outcome(out)
	}
}

// LogReporter writes events to a logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (l LogReporter) Progress(ev ProgressEvent) {
	l.Logger.Info(ev.Status,
		slog.Int("attempt", ev.Attempt),
		slog.Float64("distance_km", ev.DistanceKm))
}

func (l LogReporter) Outcome(out Outcome) {
	l.Logger.Info(out.Message(),
		slog.String("status", out.Status.String()),
		slog.Int("attempts", out.Attempts))
}
