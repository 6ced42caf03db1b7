package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomz197/invaders/internal/config"
	"github.com/tomz197/invaders/internal/logging"
	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/taunt"
	"github.com/tomz197/invaders/internal/telemetry"
	"github.com/tomz197/invaders/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to a config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "web server error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, logCloser, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Out:    os.Stderr,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := telemetry.New()
	if err != nil {
		return err
	}
	backends, err := scoreboard.Open(ctx, cfg, logging.Component(log, "scoreboard"))
	if err != nil {
		return err
	}
	defer backends.Close()

	taunts, err := taunt.FromConfig(cfg.Taunt, logging.Component(log, "taunt"), metrics)
	if err != nil {
		return err
	}

	srv := web.NewServer(logging.Component(log, "web"), web.Options{
		SSHHost:     cfg.Web.DisplayHost,
		Submitter:   backends.Submitter,
		Leaderboard: backends.Leaderboard,
		Taunts:      taunts,
	})

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Web.Host, cfg.Web.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	log.Info().Str("addr", "http://"+httpServer.Addr).Msg("Starting web server")
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
