// Package geocode classifies coordinates as land or water by querying a Nominatim-style
// reverse-geocoding oracle.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"overyonder.app/internal/logging"
	"overyonder.app/internal/metrics"
	"overyonder.app/internal/models"
)

const (
	DefaultBaseURL    = "https://nominatim.openstreetmap.org"
	DefaultUserAgent  = "OverYonder/1.0"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second

	// maxBodyBytes bounds how much of an oracle response we read.
	maxBodyBytes = 1 << 20
)

// Config controls how the client talks to the oracle.
type Config struct {
	BaseURL   string
	UserAgent string
	Language  string
	// Timeout applies to each HTTP call.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after a retryable failure.
	MaxRetries int
	RetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Client is a rate-limited, retrying reverse-geocoding client.
type Client struct {
	config     Config
	httpClient *http.Client
	gate       *Gate
	logger     *slog.Logger
}

// NewClient creates a client. The gate is shared by every client that talks to the same
// oracle; pass nil to get a private gate with the default spacing.
func NewClient(config Config, gate *Gate, logger *slog.Logger) *Client {
	if gate == nil {
		gate = NewGate(DefaultInterCallDelay)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config:     config.withDefaults(),
		httpClient: &http.Client{},
		gate:       gate,
		logger:     logger.With(slog.String("component", "geocode_client")),
	}
}

// Classify reverse-geocodes coord and decides whether it is land.
func (c *Client) Classify(ctx context.Context, coord models.Coordinate) (Classification, error) {
	resp, err := c.reverse(ctx, coord)
	if err != nil {
		return Classification{}, err
	}
	return classify(resp), nil
}

// Describe returns the oracle's full display name for coord.
func (c *Client) Describe(ctx context.Context, coord models.Coordinate) (string, error) {
	resp, err := c.reverse(ctx, coord)
	if err != nil {
		return "", err
	}
	return resp.DisplayName, nil
}

// reverse runs the lookup with bounded retries. Network and rate-limit failures are
// retried MaxRetries times, RetryDelay apart; anything else is returned at once.
func (c *Client) reverse(ctx context.Context, coord models.Coordinate) (reverseResponse, error) {
	var errs []error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.OracleRetries.Inc()
			if err := sleep(ctx, c.config.RetryDelay); err != nil {
				return reverseResponse{}, err
			}
		}

		var resp reverseResponse
		start := time.Now()
		err := c.gate.Do(ctx, func(ctx context.Context) error {
			var callErr error
			resp, callErr = c.fetch(ctx, coord)
			return callErr
		})
		metrics.ObserveOracleCall(time.Since(start), callOutcome(err))

		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return reverseResponse{}, ctx.Err()
		}

		kind := KindOf(err)
		if kind == 0 {
			err = newError(KindNetwork, "gate", err)
			kind = KindNetwork
		}
		errs = append(errs, err)

		if !kind.Retryable() {
			return reverseResponse{}, err
		}

		c.logger.Warn("oracle call failed",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", c.config.MaxRetries+1),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()))
	}

	last := errs[len(errs)-1]
	return reverseResponse{}, &Error{
		Kind: KindOf(last),
		Op:   "reverse",
		Err:  fmt.Errorf("giving up after %d attempts: %w", len(errs), errors.Join(errs...)),
	}
}

// fetch performs a single HTTP round trip and maps failures to error kinds.
func (c *Client) fetch(ctx context.Context, coord models.Coordinate) (reverseResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	params := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(coord.Latitude, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(coord.Longitude, 'f', 6, 64)},
	}
	if c.config.Language != "" {
		params.Set("accept-language", c.config.Language)
	}
	endpoint := fmt.Sprintf("%s/reverse?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return reverseResponse{}, newError(KindOracle, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reverseResponse{}, newError(KindNetwork, "reverse", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "oracle_response_body")

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return reverseResponse{}, newError(KindRateLimited, "reverse", fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return reverseResponse{}, newError(KindNetwork, "reverse", fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return reverseResponse{}, newError(KindOracle, "reverse", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return reverseResponse{}, newError(KindNetwork, "read body", err)
	}

	var data reverseResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return reverseResponse{}, newError(KindMalformed, "decode", err)
	}
	if data.Error != nil {
		return reverseResponse{}, newError(KindOracle, "reverse", fmt.Errorf("oracle error: %v", data.Error))
	}
	if data.DisplayName == "" {
		return reverseResponse{}, newError(KindOracle, "reverse", errors.New("empty result"))
	}

	return data, nil
}

func callOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
