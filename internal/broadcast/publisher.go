// Package broadcast publishes search progress on NATS so other devices following a
// session can watch it.
package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"overyonder.app/internal/logging"
	"overyonder.app/internal/search"
)

const subjectPrefix = "overyonder.search."

// Subject returns the subject for a session's events of the given kind
// ("progress" or "outcome").
func Subject(sessionID, kind string) string {
	return subjectPrefix + sessionID + "." + kind
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends search events to NATS.
type Publisher struct {
	conn   conn
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("overyonder"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	p := newPublisher(nc, logger)
	p.nc = nc
	return p, nil
}

func newPublisher(c conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: c, logger: logger.With(slog.String("component", "broadcast"))}
}

// Reporter returns a search.Reporter publishing the events of one session.
func (p *Publisher) Reporter(sessionID string) search.Reporter {
	return &sessionReporter{p: p, sessionID: sessionID}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.LogError(p.logger, "failed to encode event", err, slog.String("subject", subject))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		logging.LogError(p.logger, "failed to publish event", err, slog.String("subject", subject))
	}
}

// OutcomeMessage is the wire form of a search outcome.
type OutcomeMessage struct {
	search.Outcome
	Message string `json:"message"`
}

type sessionReporter struct {
	p         *Publisher
	sessionID string
}

func (r *sessionReporter) Progress(ev search.ProgressEvent) {
	r.p.publish(Subject(r.sessionID, "progress"), ev)
}

func (r *sessionReporter) Outcome(out search.Outcome) {
	r.p.publish(Subject(r.sessionID, "outcome"), OutcomeMessage{Outcome: out, Message: out.Message()})
}
