package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomz197/invaders/internal/config"
	"github.com/tomz197/invaders/internal/logging"
	"github.com/tomz197/invaders/internal/loop"
	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/starknet"
	"github.com/tomz197/invaders/internal/taunt"
	"github.com/tomz197/invaders/internal/telemetry"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to a config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the game, so logs only go to a file.
	log, logCloser, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var player starknet.Address
	if cfg.Player.Address != "" {
		if player, err = starknet.ParseAddress(cfg.Player.Address); err != nil {
			return fmt.Errorf("player.address: %w", err)
		}
	}

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

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	sess := loop.NewSession(bufio.NewReader(os.Stdin), os.Stdout, loop.Options{
		Player:          player,
		Submitter:       backends.Submitter,
		Leaderboard:     backends.Leaderboard,
		LeaderboardSize: cfg.Leaderboard.Size,
		Taunts:          taunts,
		Logger:          log,
		Metrics:         metrics,
	})
	return sess.Run(ctx)
}
