package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overyonder.app/internal/models"
	"overyonder.app/internal/search"
)

type stubSearcher struct {
	mu   sync.Mutex
	reqs []search.Request
	fn   func(call int, ctx context.Context, req search.Request, rep search.Reporter) search.Outcome
}

func (s *stubSearcher) Search(ctx context.Context, req search.Request, rep search.Reporter) search.Outcome {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	n := len(s.reqs)
	s.mu.Unlock()
	return s.fn(n, ctx, req, rep)
}

type recorder struct {
	mu       sync.Mutex
	events   []search.ProgressEvent
	outcomes []search.Outcome
}

func (r *recorder) Progress(ev search.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Outcome(out search.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, out)
}

func found(name string, km float64) search.Outcome {
	return search.Outcome{
		Status:      search.StatusFound,
		Destination: &models.DestinationInfo{Name: name, DistanceKm: km},
		Attempts:    1,
	}
}

func newTestManager(t *testing.T, searcher Searcher) *Manager {
	t.Helper()
	return NewManager(NewMemoryStore(), searcher, Config{DefaultHeadingDeg: 90, DistanceIncrementKm: 50},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// readySession returns a session with a position and a locked heading.
func readySession(t *testing.T, m *Manager, heading float64) *Session {
	t.Helper()
	ctx := context.Background()
	s, err := m.Create(ctx)
	require.NoError(t, err)
	_, err = m.UpdatePosition(ctx, s.ID, models.Position{Coordinate: models.Coordinate{Latitude: 48.39, Longitude: -4.49}})
	require.NoError(t, err)
	_, err = m.UpdateHeading(ctx, s.ID, models.Heading{Degrees: heading, Source: models.HeadingSourceSensor})
	require.NoError(t, err)
	s, err = m.ToggleLock(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, s.HeadingLocked)
	return s
}

func TestCreate(t *testing.T) {
	m := newTestManager(t, nil)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 50.0, s.IncrementKm)
	assert.Empty(t, s.Destinations)
	assert.False(t, s.HeadingLocked)
	assert.Equal(t, 50.0, s.NextDistanceKm())

	got, err := m.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
}

func TestGetUnknownSession(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHeadingUpdates(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	s, err := m.Create(ctx)
	require.NoError(t, err)

	s, err = m.UpdateHeading(ctx, s.ID, models.Heading{Degrees: 370, Source: models.HeadingSourceSensor})
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Heading.Degrees, 1e-9)

	_, err = m.ToggleLock(ctx, s.ID)
	require.NoError(t, err)

	s, err = m.UpdateHeading(ctx, s.ID, models.Heading{Degrees: 200, Source: models.HeadingSourceSensor})
	require.NoError(t, err)
	assert.InDelta(t, 10, s.Heading.Degrees, 1e-9, "locked heading must not move")

	s, err = m.ToggleLock(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, s.HeadingLocked)
}

func TestToggleLockWithoutReadingUsesDefault(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	s, err := m.Create(ctx)
	require.NoError(t, err)

	s, err = m.ToggleLock(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, s.Heading)
	assert.Equal(t, 90.0, s.Heading.Degrees)
	assert.Equal(t, models.HeadingSourceDefault, s.Heading.Source)
}

func TestSetIncrement(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	s, err := m.Create(ctx)
	require.NoError(t, err)

	s, err = m.SetIncrement(ctx, s.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 25.0, s.IncrementKm)

	for _, bad := range []float64{0, -10} {
		_, err = m.SetIncrement(ctx, s.ID, bad)
		assert.ErrorIs(t, err, ErrInvalidIncrement)
	}
}

func TestFindNextPreconditions(t *testing.T) {
	ctx := context.Background()
	searcher := &stubSearcher{fn: func(int, context.Context, search.Request, search.Reporter) search.Outcome {
		t.Fatal("search must not start")
		return search.Outcome{}
	}}
	m := newTestManager(t, searcher)
	s, err := m.Create(ctx)
	require.NoError(t, err)

	_, err = m.FindNext(ctx, s.ID, nil)
	assert.ErrorIs(t, err, ErrNoPosition)

	_, err = m.UpdatePosition(ctx, s.ID, models.Position{Coordinate: models.Coordinate{Latitude: 1, Longitude: 2}})
	require.NoError(t, err)
	_, err = m.FindNext(ctx, s.ID, nil)
	assert.ErrorIs(t, err, ErrHeadingNotLocked)

	_, err = m.FindNext(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindNextAppendsDestinations(t *testing.T) {
	ctx := context.Background()
	searcher := &stubSearcher{fn: func(call int, _ context.Context, req search.Request, rep search.Reporter) search.Outcome {
		rep.Progress(search.ProgressEvent{Attempt: 1, DistanceKm: req.StartDistanceKm})
		out := found("Brest", req.StartDistanceKm)
		if call == 1 {
			out = found("Quimper", req.StartDistanceKm)
		}
		rep.Outcome(out)
		return out
	}}
	m := newTestManager(t, searcher)
	s := readySession(t, m, 180)

	rec := &recorder{}
	out, err := m.FindNext(ctx, s.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, search.StatusFound, out.Status)
	assert.Len(t, rec.events, 1)
	assert.Len(t, rec.outcomes, 1)

	_, err = m.FindNext(ctx, s.ID, nil)
	require.NoError(t, err)

	require.Len(t, searcher.reqs, 2)
	assert.Equal(t, 50.0, searcher.reqs[0].StartDistanceKm)
	assert.Equal(t, 100.0, searcher.reqs[1].StartDistanceKm)
	assert.Equal(t, 180.0, searcher.reqs[0].Heading)
	assert.Equal(t, 50.0, searcher.reqs[0].IncrementKm)
	assert.Equal(t, 48.39, searcher.reqs[0].Origin.Latitude)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Destinations, 2)
	assert.Equal(t, "Quimper", got.Destinations[0].Name)
	assert.Equal(t, "Brest", got.Destinations[1].Name)
	assert.Equal(t, 150.0, got.NextDistanceKm())
}

func TestFindNextExhaustedLeavesDestinations(t *testing.T) {
	ctx := context.Background()
	searcher := &stubSearcher{fn: func(_ int, _ context.Context, _ search.Request, rep search.Reporter) search.Outcome {
		out := search.Outcome{Status: search.StatusExhausted, Attempts: 50, LastDistanceKm: 2500}
		rep.Outcome(out)
		return out
	}}
	m := newTestManager(t, searcher)
	s := readySession(t, m, 0)

	rec := &recorder{}
	out, err := m.FindNext(ctx, s.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, search.StatusExhausted, out.Status)
	require.Len(t, rec.outcomes, 1)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Destinations)
}

func TestFindNextSupersedesRunningSearch(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	searcher := &stubSearcher{fn: func(call int, ctx context.Context, req search.Request, rep search.Reporter) search.Outcome {
		if call == 1 {
			rep.Progress(search.ProgressEvent{Attempt: 1, DistanceKm: req.StartDistanceKm})
			close(started)
			<-ctx.Done()
			// Late events from the superseded run must be dropped.
			rep.Progress(search.ProgressEvent{Attempt: 2})
			out := found("Stale", 1)
			rep.Outcome(out)
			return out
		}
		out := found("Fresh", 2)
		rep.Outcome(out)
		return out
	}}
	m := newTestManager(t, searcher)
	s := readySession(t, m, 270)

	first := &recorder{}
	firstOut := make(chan search.Outcome, 1)
	go func() {
		out, err := m.FindNext(ctx, s.ID, first)
		assert.NoError(t, err)
		firstOut <- out
	}()
	<-started

	second := &recorder{}
	out, err := m.FindNext(ctx, s.ID, second)
	require.NoError(t, err)
	assert.Equal(t, search.StatusFound, out.Status)

	stale := <-firstOut
	assert.Equal(t, search.StatusCancelled, stale.Status)

	assert.Len(t, first.events, 1)
	assert.Empty(t, first.outcomes)
	require.Len(t, second.outcomes, 1)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Destinations, 1)
	assert.Equal(t, "Fresh", got.Destinations[0].Name)
}

func TestResetKeepsPosition(t *testing.T) {
	ctx := context.Background()
	searcher := &stubSearcher{fn: func(_ int, _ context.Context, req search.Request, rep search.Reporter) search.Outcome {
		out := found("Somewhere", req.StartDistanceKm)
		rep.Outcome(out)
		return out
	}}
	m := newTestManager(t, searcher)
	s := readySession(t, m, 45)
	_, err := m.SetIncrement(ctx, s.ID, 10)
	require.NoError(t, err)
	_, err = m.FindNext(ctx, s.ID, nil)
	require.NoError(t, err)

	s, err = m.Reset(ctx, s.ID)
	require.NoError(t, err)
	assert.NotNil(t, s.Position)
	assert.Nil(t, s.Heading)
	assert.False(t, s.HeadingLocked)
	assert.Empty(t, s.Destinations)
	assert.Equal(t, 50.0, s.IncrementKm)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	s, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, s.ID))
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, s.ID), ErrNotFound)
}
