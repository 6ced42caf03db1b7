package scoreboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomz197/invaders/internal/config"
	"github.com/tomz197/invaders/internal/starknet"
)

var (
	alice = starknet.MustParseAddress("0xa11ce")
	bob   = starknet.MustParseAddress("0xb0b")
	carol = starknet.MustParseAddress("0xca401")
)

func TestZip(t *testing.T) {
	entries, err := Zip([]starknet.Address{alice, bob}, []uint32{30, 20})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{alice, 30}, {bob, 20}}, entries)

	_, err = Zip([]starknet.Address{alice}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	entries, err = Zip(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClampTop(t *testing.T) {
	assert.Equal(t, uint32(10), ClampTop(0))
	assert.Equal(t, uint32(1), ClampTop(-4))
	assert.Equal(t, uint32(1), ClampTop(1))
	assert.Equal(t, uint32(42), ClampTop(42))
	assert.Equal(t, uint32(100), ClampTop(100))
	assert.Equal(t, uint32(100), ClampTop(1000))
}

func newSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	improved, err := s.SubmitScore(ctx, alice, 100, 1)
	require.NoError(t, err)
	assert.True(t, improved)

	improved, err = s.SubmitScore(ctx, alice, 50, 2)
	require.NoError(t, err)
	assert.False(t, improved, "lower score keeps the best")

	improved, err = s.SubmitScore(ctx, alice, 300, 3)
	require.NoError(t, err)
	assert.True(t, improved)

	_, err = s.SubmitScore(ctx, bob, 200, 4)
	require.NoError(t, err)
	_, err = s.SubmitScore(ctx, carol, 10, 5)
	require.NoError(t, err)

	top, err := s.TopPlayers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{alice, 300}, {bob, 200}}, top)

	top, err = s.TopPlayers(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	_, err = s.SubmitScore(ctx, starknet.Address{}, 1, 1)
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestSQLStore(t *testing.T) {
	storeContract(t, newSQLite(t))
}

func TestSQLStore_TiesGoToEarlierScore(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	_, err := s.SubmitScore(ctx, bob, 100, 20)
	require.NoError(t, err)
	_, err = s.SubmitScore(ctx, alice, 100, 10)
	require.NoError(t, err)

	top, err := s.TopPlayers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{alice, 100}, {bob, 100}}, top)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("INVADERS_TEST_REDIS")
	if addr == "" {
		t.Skip("INVADERS_TEST_REDIS not set")
	}
	key := "invaders:test:" + uuid.NewString()
	s, err := NewRedisStore(context.Background(), &redis.Options{Addr: addr}, key)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.client.Del(context.Background(), key, s.timestampsKey())
		_ = s.Close()
	})

	storeContract(t, s)
}

func TestHTTPClient(t *testing.T) {
	backing := newSQLite(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/scores":
			var req SubmitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			player, score, ts, err := ParseSubmitRequest(req)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(SubmitResponse{Error: err.Error()})
				return
			}
			improved, err := backing.SubmitScore(r.Context(), player, score, ts)
			require.NoError(t, err)
			_ = json.NewEncoder(w).Encode(SubmitResponse{Success: true, Improved: improved})
		case "/api/leaderboard":
			assert.Equal(t, "2", r.URL.Query().Get("n"))
			entries, err := backing.TopPlayers(r.Context(), 2)
			require.NoError(t, err)
			_ = json.NewEncoder(w).Encode(NewLeaderboardResponse(entries))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	improved, err := c.SubmitScore(ctx, alice, 120, 1700000000)
	require.NoError(t, err)
	assert.True(t, improved)
	_, err = c.SubmitScore(ctx, bob, 80, 1700000001)
	require.NoError(t, err)

	top, err := c.TopPlayers(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{alice, 120}, {bob, 80}}, top)

	_, err = c.SubmitScore(ctx, starknet.Address{}, 1, 1)
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestHTTPClient_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(SubmitResponse{Error: "invalid score"})
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).SubmitScore(context.Background(), alice, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid score")
}

func TestHTTPClient_MismatchedLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(LeaderboardResponse{Players: []string{"0x1", "0x2"}, Scores: []uint32{5}})
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).TopPlayers(context.Background(), 10)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestParseSubmitRequest(t *testing.T) {
	player, score, ts, err := ParseSubmitRequest(SubmitRequest{Player: "0xA11CE", Score: "4294967295", Timestamp: "18446744073709551615"})
	require.NoError(t, err)
	assert.Equal(t, alice, player)
	assert.Equal(t, uint32(4294967295), score)
	assert.Equal(t, uint64(18446744073709551615), ts)

	for _, req := range []SubmitRequest{
		{Player: "alice", Score: "1", Timestamp: "1"},
		{Player: "0x1", Score: "4294967296", Timestamp: "1"},
		{Player: "0x1", Score: "-1", Timestamp: "1"},
		{Player: "0x1", Score: "1", Timestamp: "soon"},
	} {
		_, _, _, err := ParseSubmitRequest(req)
		assert.Error(t, err, "%+v", req)
	}
}

type fakeChain struct {
	players []starknet.Address
	scores  []uint32
	err     error
	gotN    uint32
}

func (f *fakeChain) TopPlayers(_ context.Context, n uint32) ([]starknet.Address, []uint32, error) {
	f.gotN = n
	return f.players, f.scores, f.err
}

func TestChainLeaderboard(t *testing.T) {
	chain := &fakeChain{players: []starknet.Address{bob, alice}, scores: []uint32{9, 3}}

	top, err := NewChainLeaderboard(chain).TopPlayers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), chain.gotN)
	assert.Equal(t, []Entry{{bob, 9}, {alice, 3}}, top)

	chain.err = errors.New("node down")
	_, err = NewChainLeaderboard(chain).TopPlayers(context.Background(), 5)
	assert.EqualError(t, err, "node down")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestOpen_None(t *testing.T) {
	b, err := Open(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Submitter.SubmitScore(context.Background(), alice, 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = b.Leaderboard.TopPlayers(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scoreboard.Backend = "sqlite"
	cfg.Scoreboard.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	b, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = b.Submitter.SubmitScore(context.Background(), alice, 7, 1)
	require.NoError(t, err)
	top, err := b.Leaderboard.TopPlayers(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{alice, 7}}, top)
	assert.NoError(t, b.Close())
}

func TestOpen_StarknetNeedsRPC(t *testing.T) {
	cfg := testConfig(t)
	cfg.Leaderboard.Source = "starknet"

	_, err := Open(context.Background(), cfg, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Starknet.RPCURL = "http://127.0.0.1:1"
	b, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &ChainLeaderboard{}, b.Leaderboard)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scoreboard.Backend = "mongo"

	_, err := Open(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "mongo"))
}
