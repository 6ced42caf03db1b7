package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/tomz197/invaders/internal/config"
	"github.com/tomz197/invaders/internal/starknet"
)

// Backends is what Open selected. Unconfigured parts answer ErrNotConfigured.
type Backends struct {
	Submitter   Submitter
	Leaderboard Leaderboard

	closers []io.Closer
}

// Close releases every opened backend.
func (b *Backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Open builds the submitter and leaderboard named by the configuration.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backends, error) {
	b := &Backends{Submitter: unconfigured{}, Leaderboard: unconfigured{}}

	store, closer, err := openStore(ctx, cfg.Scoreboard)
	if err != nil {
		return nil, err
	}
	if store != nil {
		b.Submitter = store
		b.Leaderboard = store
	}
	if closer != nil {
		b.closers = append(b.closers, closer)
	}

	if cfg.Leaderboard.Source == "starknet" {
		if cfg.Starknet.RPCURL == "" {
			_ = b.Close()
			return nil, fmt.Errorf("leaderboard.source is starknet but starknet.rpcUrl is empty: %w", ErrNotConfigured)
		}
		contract, err := starknet.ParseAddress(cfg.Starknet.ContractAddress)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("starknet.contractAddress: %w", err)
		}
		client := starknet.NewClient(cfg.Starknet.RPCURL, contract, cfg.Starknet.Timeout)
		b.Leaderboard = NewChainLeaderboard(client)
		log.Info().Str("contract", client.Contract().Short()).Msg("Reading leaderboard from chain")
	}

	log.Info().
		Str("backend", cfg.Scoreboard.Backend).
		Str("leaderboard", cfg.Leaderboard.Source).
		Msg("Scoreboard ready")
	return b, nil
}

func openStore(ctx context.Context, cfg config.ScoreboardConfig) (Store, io.Closer, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.DSN)
		return s, s, err
	case "postgres":
		s, err := OpenPostgres(cfg.DSN)
		return s, s, err
	case "redis":
		s, err := NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Key)
		return s, s, err
	case "http":
		return NewHTTPClient(cfg.URL, cfg.Timeout), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown scoreboard backend %q", cfg.Backend)
	}
}
