package scoreboard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/tomz197/invaders/internal/starknet"
)

// RedisStore keeps best scores in a sorted set and the time of each
// player's best in a hash next to it.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, opts *redis.Options, key string) (*RedisStore, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) timestampsKey() string { return s.key + ":ts" }

// SubmitScore raises the player's best score. Lower scores leave it as is.
func (s *RedisStore) SubmitScore(ctx context.Context, player starknet.Address, score uint32, timestamp uint64) (bool, error) {
	if err := checkPlayer(player); err != nil {
		return false, err
	}
	member := player.String()

	changed, err := s.client.ZAddArgs(ctx, s.key, redis.ZAddArgs{
		GT:      true,
		Ch:      true,
		Members: []redis.Z{{Score: float64(score), Member: member}},
	}).Result()
	if err != nil {
		return false, fmt.Errorf("redis zadd: %w", err)
	}
	if changed == 0 {
		return false, nil
	}
	if err := s.client.HSet(ctx, s.timestampsKey(), member, timestamp).Err(); err != nil {
		return true, fmt.Errorf("redis hset: %w", err)
	}
	return true, nil
}

// TopPlayers returns the n highest scores.
func (s *RedisStore) TopPlayers(ctx context.Context, n uint32) ([]Entry, error) {
	if n == 0 {
		return nil, nil
	}
	members, err := s.client.ZRevRangeWithScores(ctx, s.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		name, _ := m.Member.(string)
		player, err := starknet.ParseAddress(name)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Player: player, Score: uint32(m.Score)})
	}
	return entries, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
