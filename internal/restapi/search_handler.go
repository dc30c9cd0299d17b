package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"overyonder.app/internal/logging"
	"overyonder.app/internal/models"
	"overyonder.app/internal/search"
	"overyonder.app/internal/utils"
)

const ndjsonContentType = "application/x-ndjson"

// streamLine is one line of a search stream.
type streamLine struct {
	Type string `json:"type"`

	Attempt     int     `json:"attempt,omitempty"`
	MaxAttempts int     `json:"maxAttempts,omitempty"`
	DistanceKm  float64 `json:"distanceKm,omitempty"`

	Status         string                  `json:"status,omitempty"`
	Destination    *models.DestinationInfo `json:"destination,omitempty"`
	Attempts       int                     `json:"attempts,omitempty"`
	LastDistanceKm float64                 `json:"lastDistanceKm,omitempty"`
	Message        string                  `json:"message,omitempty"`
}

// streamReporter writes search events as newline-delimited JSON. Headers go out
// with the first event so that errors raised before the search starts can still
// be reported with a regular status code.
type streamReporter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	logger  *slog.Logger
	mu      sync.Mutex
	started bool
}

func newStreamReporter(w http.ResponseWriter, logger *slog.Logger) *streamReporter {
	return &streamReporter{w: w, rc: http.NewResponseController(w), logger: logger}
}

func (s *streamReporter) start() {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", ndjsonContentType)
	s.w.Header().Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamReporter) write(line streamLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()
	if err := json.NewEncoder(s.w).Encode(line); err != nil {
		logging.LogError(s.logger, "failed to write search stream", err)
		return
	}
	if err := s.rc.Flush(); err != nil {
		s.logger.Debug("search stream not flushable", slog.String("error", err.Error()))
	}
}

func (s *streamReporter) Progress(ev search.ProgressEvent) {
	s.write(streamLine{
		Type:        "progress",
		Attempt:     ev.Attempt,
		MaxAttempts: ev.MaxAttempts,
		DistanceKm:  ev.DistanceKm,
		Message:     ev.Status,
	})
}

func (s *streamReporter) Outcome(out search.Outcome) {
	s.write(streamLine{
		Type:           "outcome",
		Status:         out.Status.String(),
		Destination:    out.Destination,
		Attempts:       out.Attempts,
		LastDistanceKm: out.LastDistanceKm,
		Message:        out.Message(),
	})
}

func (s *streamReporter) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start()
}

// searchHandler runs FindNext for the session and streams its progress. A search
// superseded by a newer request ends its stream without an outcome line.
func (api *RestAPI) searchHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	logger := logging.FromContext(r.Context()).With(slog.String("session_id", id))

	stream := newStreamReporter(w, logger)
	var rep search.Reporter = stream
	if api.Broadcaster != nil {
		rep = search.MultiReporter{stream, api.Broadcaster.Reporter(id)}
	}

	out, err := api.Sessions.FindNext(r.Context(), id, rep)
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	if out.Status == search.StatusCancelled {
		logger.Info("search stream ended without outcome", slog.Int("attempts", out.Attempts))
	}
	stream.finish()
}
