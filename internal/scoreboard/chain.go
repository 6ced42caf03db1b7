package scoreboard

import (
	"context"

	"github.com/tomz197/invaders/internal/starknet"
)

// TopPlayersReader is the part of starknet.Client the chain view needs.
type TopPlayersReader interface {
	TopPlayers(ctx context.Context, n uint32) ([]starknet.Address, []uint32, error)
}

// ChainLeaderboard reads the leaderboard from the score contract.
type ChainLeaderboard struct {
	client TopPlayersReader
}

// NewChainLeaderboard wraps a contract reader.
func NewChainLeaderboard(client TopPlayersReader) *ChainLeaderboard {
	return &ChainLeaderboard{client: client}
}

// TopPlayers implements Leaderboard.
func (l *ChainLeaderboard) TopPlayers(ctx context.Context, n uint32) ([]Entry, error) {
	players, scores, err := l.client.TopPlayers(ctx, n)
	if err != nil {
		return nil, err
	}
	return Zip(players, scores)
}
