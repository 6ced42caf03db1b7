// Package scoreboard stores best scores and serves the leaderboard.
//
// Several backends implement the same two interfaces: Redis, SQL through
// gorm, the HTTP API of cmd/web, and a read-only view of the Starknet
// contract.
package scoreboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomz197/invaders/internal/starknet"
)

// Leaderboard sizes.
const (
	DefaultTop = 10
	MaxTop     = 100
)

var (
	// ErrNoWallet is returned when a score is submitted without a player address.
	ErrNoWallet = errors.New("no wallet address")
	// ErrNotConfigured is returned by operations that have no backend.
	ErrNotConfigured = errors.New("scoreboard not configured")
	// ErrLengthMismatch is returned when player and score lists differ in length.
	ErrLengthMismatch = errors.New("players and scores differ in length")
)

// Entry is one leaderboard row.
type Entry struct {
	Player starknet.Address
	Score  uint32
}

// Submitter records scores. The bool reports whether the player's stored
// best score went up.
type Submitter interface {
	SubmitScore(ctx context.Context, player starknet.Address, score uint32, timestamp uint64) (bool, error)
}

// Leaderboard lists the best players, highest score first.
type Leaderboard interface {
	TopPlayers(ctx context.Context, n uint32) ([]Entry, error)
}

// Store is a backend that does both.
type Store interface {
	Submitter
	Leaderboard
}

// Zip pairs index-aligned player and score lists.
func Zip(players []starknet.Address, scores []uint32) ([]Entry, error) {
	if len(players) != len(scores) {
		return nil, fmt.Errorf("%w: %d players, %d scores", ErrLengthMismatch, len(players), len(scores))
	}
	entries := make([]Entry, len(players))
	for i := range players {
		entries[i] = Entry{Player: players[i], Score: scores[i]}
	}
	return entries, nil
}

// ClampTop bounds a requested leaderboard size to 1..MaxTop. Zero selects
// DefaultTop.
func ClampTop(n int) uint32 {
	switch {
	case n == 0:
		return DefaultTop
	case n < 1:
		return 1
	case n > MaxTop:
		return MaxTop
	default:
		return uint32(n)
	}
}

func checkPlayer(player starknet.Address) error {
	if player.IsZero() {
		return ErrNoWallet
	}
	return nil
}

// unconfigured stands in for a missing backend.
type unconfigured struct{}

func (unconfigured) SubmitScore(context.Context, starknet.Address, uint32, uint64) (bool, error) {
	return false, ErrNotConfigured
}

func (unconfigured) TopPlayers(context.Context, uint32) ([]Entry, error) {
	return nil, ErrNotConfigured
}
