package broadcast

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overyonder.app/internal/models"
	"overyonder.app/internal/search"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.msgs = append(f.msgs, published{subject, data})
	return f.err
}

func TestReporterPublishesEvents(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rep := p.Reporter("abc")

	rep.Progress(search.ProgressEvent{Attempt: 1, MaxAttempts: 50, DistanceKm: 50, Status: "Searching at 50km (attempt 1/50)"})
	rep.Outcome(search.Outcome{
		Status:      search.StatusFound,
		Destination: &models.DestinationInfo{Name: "Cork", DistanceKm: 50.2},
		Attempts:    1,
	})

	require.Len(t, fc.msgs, 2)
	assert.Equal(t, "overyonder.search.abc.progress", fc.msgs[0].subject)
	assert.Equal(t, "overyonder.search.abc.outcome", fc.msgs[1].subject)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &ev))
	assert.Equal(t, float64(1), ev["attempt"])
	assert.Equal(t, float64(50), ev["distanceKm"])

	var out map[string]any
	require.NoError(t, json.Unmarshal(fc.msgs[1].data, &out))
	assert.Equal(t, "found", out["status"])
	assert.Equal(t, "Found Cork at 50.2km", out["message"])
	dest := out["destination"].(map[string]any)
	assert.Equal(t, "Cork", dest["name"])
}

func TestPublishErrorsAreLogged(t *testing.T) {
	fc := &fakeConn{err: errors.New("nats: connection closed")}
	p := newPublisher(fc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		p.Reporter("abc").Progress(search.ProgressEvent{Attempt: 1})
	})
	assert.Len(t, fc.msgs, 1)
}
