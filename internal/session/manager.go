package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"overyonder.app/internal/geodesy"
	"overyonder.app/internal/logging"
	"overyonder.app/internal/models"
	"overyonder.app/internal/search"
)

// Searcher runs one heading search.
type Searcher interface {
	Search(ctx context.Context, req search.Request, rep search.Reporter) search.Outcome
}

// Config carries the session defaults.
type Config struct {
	DefaultHeadingDeg   float64
	DistanceIncrementKm float64
}

// Manager applies user actions to sessions. Read-modify-write cycles are serialized
// so concurrent requests for one session never lose updates.
type Manager struct {
	store    Store
	searcher Searcher
	config   Config
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running map[string]*run
}

// run is one in-flight FindNext. Once superseded it forwards nothing.
type run struct {
	cancel     context.CancelFunc
	mu         sync.Mutex
	superseded bool
	delivered  bool
}

func (r *run) supersede() {
	r.mu.Lock()
	r.superseded = true
	r.mu.Unlock()
	r.cancel()
}

func NewManager(store Store, searcher Searcher, config Config, logger *slog.Logger) *Manager {
	if config.DistanceIncrementKm <= 0 {
		config.DistanceIncrementKm = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		searcher: searcher,
		config:   config,
		logger:   logger.With(slog.String("component", "session_manager")),
		now:      time.Now,
		running:  make(map[string]*run),
	}
}

// Create starts an empty session.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := &Session{
		ID:           uuid.NewString(),
		IncrementKm:  m.config.DistanceIncrementKm,
		Destinations: []models.DestinationInfo{},
		UpdatedAt:    m.now(),
	}
	if err := m.store.Put(ctx, s); err != nil {
		return nil, err
	}
	logging.LogOperation(m.logger, "session_created", slog.String("session_id", s.ID))
	return s, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// UpdatePosition records the latest device position.
func (m *Manager) UpdatePosition(ctx context.Context, id string, pos models.Position) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		s.Position = &pos
		return nil
	})
}

// UpdateHeading records the latest compass reading. While the heading is locked the
// stored heading is frozen and the reading is ignored.
func (m *Manager) UpdateHeading(ctx context.Context, id string, h models.Heading) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		if s.HeadingLocked {
			return nil
		}
		h.Degrees = geodesy.NormalizeHeading(h.Degrees)
		s.Heading = &h
		return nil
	})
}

// ToggleLock flips the heading lock. Locking without any reading pins the default
// heading.
func (m *Manager) ToggleLock(ctx context.Context, id string) (*Session, error) {
	return m.update(ctx, id, func(s *Session) error {
		s.HeadingLocked = !s.HeadingLocked
		if s.HeadingLocked && s.Heading == nil {
			s.Heading = m.defaultHeading()
		}
		return nil
	})
}

// SetIncrement changes the distance step used by subsequent searches.
func (m *Manager) SetIncrement(ctx context.Context, id string, km float64) (*Session, error) {
	if !(km > 0) || math.IsInf(km, 0) {
		return nil, ErrInvalidIncrement
	}
	return m.update(ctx, id, func(s *Session) error {
		s.IncrementKm = km
		return nil
	})
}

// Reset clears heading, lock, destinations and increment. The position survives and
// any running search is superseded.
func (m *Manager) Reset(ctx context.Context, id string) (*Session, error) {
	m.supersede(id)
	return m.update(ctx, id, func(s *Session) error {
		s.Heading = nil
		s.HeadingLocked = false
		s.Destinations = []models.DestinationInfo{}
		s.IncrementKm = m.config.DistanceIncrementKm
		return nil
	})
}

// Delete removes the session and supersedes its running search.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.supersede(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	logging.LogOperation(m.logger, "session_deleted", slog.String("session_id", id))
	return nil
}

// FindNext searches for the next destination along the locked heading, starting at
// NextDistanceKm. A newer FindNext on the same session supersedes this one: rep then
// receives nothing further and the result is never appended to the session.
func (m *Manager) FindNext(ctx context.Context, id string, rep search.Reporter) (search.Outcome, error) {
	if rep == nil {
		rep = search.NopReporter{}
	}

	m.mu.Lock()
	s, err := m.store.Get(ctx, id)
	if err != nil {
		m.mu.Unlock()
		return search.Outcome{}, err
	}
	if s.Position == nil {
		m.mu.Unlock()
		return search.Outcome{}, ErrNoPosition
	}
	if !s.HeadingLocked {
		m.mu.Unlock()
		return search.Outcome{}, ErrHeadingNotLocked
	}
	heading := s.Heading
	if heading == nil {
		heading = m.defaultHeading()
	}
	req := search.Request{
		Origin:          s.Position.Coordinate,
		Heading:         heading.Degrees,
		StartDistanceKm: s.NextDistanceKm(),
		IncrementKm:     s.IncrementKm,
	}

	searchCtx, cancel := context.WithCancel(ctx)
	current := &run{cancel: cancel}
	previous := m.running[id]
	m.running[id] = current
	m.mu.Unlock()

	if previous != nil {
		previous.supersede()
		m.logger.Info("search superseded", slog.String("session_id", id))
	}

	defer func() {
		cancel()
		m.mu.Lock()
		if m.running[id] == current {
			delete(m.running, id)
		}
		m.mu.Unlock()
	}()

	logging.LogOperation(m.logger, "search_started",
		slog.String("session_id", id),
		slog.Float64("heading", req.Heading),
		slog.Float64("start_km", req.StartDistanceKm),
		slog.Float64("increment_km", req.IncrementKm))

	out := m.searcher.Search(searchCtx, req, &gatedReporter{m: m, id: id, run: current, next: rep})

	current.mu.Lock()
	if current.superseded && !current.delivered && out.Status != search.StatusCancelled {
		out = search.Outcome{Status: search.StatusCancelled, Attempts: out.Attempts, LastDistanceKm: out.LastDistanceKm, Err: context.Canceled}
	}
	current.mu.Unlock()
	return out, nil
}

// gatedReporter drops events of a superseded run and appends a found destination to
// the session before forwarding the outcome.
type gatedReporter struct {
	m    *Manager
	id   string
	run  *run
	next search.Reporter
}

func (g *gatedReporter) Progress(ev search.ProgressEvent) {
	g.run.mu.Lock()
	defer g.run.mu.Unlock()
	if g.run.superseded {
		return
	}
	g.next.Progress(ev)
}

func (g *gatedReporter) Outcome(out search.Outcome) {
	g.run.mu.Lock()
	defer g.run.mu.Unlock()
	if g.run.superseded {
		return
	}
	if !g.m.commit(g.id, g.run, out) {
		g.run.superseded = true
		return
	}
	g.run.delivered = true
	g.next.Outcome(out)
}

// commit records a found destination if run is still the session's current search.
func (m *Manager) commit(id string, r *run, out search.Outcome) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running[id] != r {
		return false
	}
	if out.Status != search.StatusFound || out.Destination == nil {
		return true
	}

	ctx := context.Background()
	s, err := m.store.Get(ctx, id)
	if err != nil {
		logging.LogError(m.logger, "failed to load session for found destination", err, slog.String("session_id", id))
		return true
	}
	s.Destinations = append(s.Destinations, *out.Destination)
	s.UpdatedAt = m.now()
	if err := m.store.Put(ctx, s); err != nil {
		logging.LogError(m.logger, "failed to store found destination", err, slog.String("session_id", id))
	}
	return true
}

func (m *Manager) supersede(id string) {
	m.mu.Lock()
	r := m.running[id]
	delete(m.running, id)
	m.mu.Unlock()
	if r != nil {
		r.supersede()
	}
}

func (m *Manager) update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.now()
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("store session %s: %w", id, err)
	}
	return s, nil
}

func (m *Manager) defaultHeading() *models.Heading {
	return &models.Heading{
		Degrees: geodesy.NormalizeHeading(m.config.DefaultHeadingDeg),
		Source:  models.HeadingSourceDefault,
	}
}
