package scoreboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomz197/invaders/internal/starknet"
)

// SubmitRequest is the body of POST /api/scores. Numbers travel as decimal
// strings so u64 timestamps survive JSON.
type SubmitRequest struct {
	Player    string `json:"player"`
	Score     string `json:"score"`
	Timestamp string `json:"timestamp"`
}

// SubmitResponse answers POST /api/scores.
type SubmitResponse struct {
	Success  bool   `json:"success"`
	Improved bool   `json:"improved"`
	Error    string `json:"error,omitempty"`
}

// LeaderboardResponse answers GET /api/leaderboard with index-aligned lists,
// the same shape the contract returns.
type LeaderboardResponse struct {
	Players []string `json:"players"`
	Scores  []uint32 `json:"scores"`
}

// NewLeaderboardResponse flattens entries into aligned lists.
func NewLeaderboardResponse(entries []Entry) LeaderboardResponse {
	resp := LeaderboardResponse{
		Players: make([]string, len(entries)),
		Scores:  make([]uint32, len(entries)),
	}
	for i, e := range entries {
		resp.Players[i] = e.Player.String()
		resp.Scores[i] = e.Score
	}
	return resp
}

// ParseSubmitRequest validates a decoded request body.
func ParseSubmitRequest(req SubmitRequest) (player starknet.Address, score uint32, timestamp uint64, err error) {
	player, err = starknet.ParseAddress(req.Player)
	if err != nil {
		return player, 0, 0, err
	}
	s, err := strconv.ParseUint(req.Score, 10, 32)
	if err != nil {
		return player, 0, 0, fmt.Errorf("invalid score %q: %w", req.Score, err)
	}
	timestamp, err = strconv.ParseUint(req.Timestamp, 10, 64)
	if err != nil {
		return player, 0, 0, fmt.Errorf("invalid timestamp %q: %w", req.Timestamp, err)
	}
	return player, uint32(s), timestamp, nil
}

// HTTPClient talks to the scoreboard API served by cmd/web.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the API at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SubmitScore posts a score.
func (c *HTTPClient) SubmitScore(ctx context.Context, player starknet.Address, score uint32, timestamp uint64) (bool, error) {
	if err := checkPlayer(player); err != nil {
		return false, err
	}
	body, err := json.Marshal(SubmitRequest{
		Player:    player.String(),
		Score:     strconv.FormatUint(uint64(score), 10),
		Timestamp: strconv.FormatUint(timestamp, 10),
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scores", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("submit returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		if out.Error != "" {
			return false, fmt.Errorf("submit rejected: %s", out.Error)
		}
		return false, fmt.Errorf("submit returned status %d", resp.StatusCode)
	}
	return out.Improved, nil
}

// TopPlayers fetches the leaderboard.
func (c *HTTPClient) TopPlayers(ctx context.Context, n uint32) ([]Entry, error) {
	u := c.baseURL + "/api/leaderboard?" + url.Values{"n": {strconv.FormatUint(uint64(n), 10)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leaderboard request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard returned status %d", resp.StatusCode)
	}

	var out LeaderboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}

	players := make([]starknet.Address, len(out.Players))
	for i, p := range out.Players {
		if players[i], err = starknet.ParseAddress(p); err != nil {
			return nil, err
		}
	}
	return Zip(players, out.Scores)
}
