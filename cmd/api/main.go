package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overyonder.app/internal/app"
	"overyonder.app/internal/appconf"
	"overyonder.app/internal/logging"
	"overyonder.app/internal/restapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configDir   string
		port        int
		env         string
		apiKeysFlag string
		logLevel    string
	)
	flag.StringVar(&configDir, "config", "", "Directory containing config.yaml")
	flag.IntVar(&port, "port", 0, "API server port (overrides config)")
	flag.StringVar(&env, "env", "", "Environment (development|test|production)")
	flag.StringVar(&apiKeysFlag, "api-keys", "", "Comma separated API keys (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flag.Parse()

	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := appconf.Load(paths...)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if env != "" {
		cfg.EnvName = env
		cfg.Env = appconf.EnvFlagToEnvironment(env)
	}
	if apiKeysFlag != "" {
		cfg.SetAPIKeys(apiKeysFlag)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(os.Stdout, logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	slog.SetDefault(logger)

	application, cleanup, err := app.New(*cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	api := restapi.NewRestAPI(application)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "graceful shutdown failed", err)
		return err
	}
	return nil
}
