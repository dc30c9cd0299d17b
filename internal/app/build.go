package app

import (
	"fmt"
	"log/slog"
	"time"

	"overyonder.app/internal/appconf"
	"overyonder.app/internal/broadcast"
	"overyonder.app/internal/geocode"
	"overyonder.app/internal/search"
	"overyonder.app/internal/session"
)

// NewOracleClient builds the reverse-geocoding client described by cfg with its own
// rate-limit gate.
func NewOracleClient(cfg appconf.OracleConfig, logger *slog.Logger) *geocode.Client {
	gate := geocode.NewGate(cfg.InterCallDelay())
	return geocode.NewClient(geocode.Config{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Language:   cfg.Language,
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
	}, gate, logger)
}

// New wires an Application from configuration. The returned cleanup releases the
// external connections it opened.
func New(cfg appconf.Config, logger *slog.Logger) (*Application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client := NewOracleClient(cfg.Oracle, logger)
	engine := search.NewEngine(client, cfg.Search.MaxSearchAttempts, logger)

	var store session.Store = session.NewMemoryStore()
	if cfg.Valkey.Addr != "" {
		vs, err := session.NewValkeyStore(cfg.Valkey.Addr, time.Duration(cfg.Valkey.SessionTTL)*time.Second)
		if err != nil {
			return nil, cleanup, fmt.Errorf("session store: %w", err)
		}
		closers = append(closers, vs.Close)
		store = vs
		logger.Info("using valkey session store", slog.String("addr", cfg.Valkey.Addr))
	}

	application := &Application{
		Config:   cfg,
		Logger:   logger,
		Geocoder: client,
		Sessions: session.NewManager(store, engine, session.Config{
			DefaultHeadingDeg:   cfg.Search.DefaultHeadingDeg,
			DistanceIncrementKm: cfg.Search.DistanceIncrementKm,
		}, logger),
	}

	if cfg.NATS.URL != "" {
		pub, err := broadcast.NewPublisher(cfg.NATS.URL, logger)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("search broadcast: %w", err)
		}
		closers = append(closers, pub.Close)
		application.Broadcaster = pub
		logger.Info("broadcasting searches on nats", slog.String("url", cfg.NATS.URL))
	}

	return application, cleanup, nil
}
