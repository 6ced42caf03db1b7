package taunt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	llmTemperature = 0.7
	llmMaxTokens   = 150
)

// ErrNoAPIKey is returned by NewLLMClient when no key is configured.
var ErrNoAPIKey = errors.New("language model API key not set")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// LLMClient calls an OpenAI-compatible chat completions endpoint.
type LLMClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewLLMClient creates a client. A non-empty proxyURL routes requests
// through that HTTP proxy.
func NewLLMClient(endpoint, apiKey, model, proxyURL string, timeout time.Duration) (*LLMClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &LLMClient{
		url:    endpoint,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// Complete implements Completer.
func (c *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil {
			return "", fmt.Errorf("completion returned status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("completion returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode completion: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// PostRequest is the body sent to the tweet-posting service.
type PostRequest struct {
	TweetContent  string `json:"tweet_content"`
	BossDefeated  bool   `json:"boss_defeated"`
	PlayerAddress string `json:"player_address"`
	Score         int    `json:"score"`
}

// PostResult is the tweet-posting service's answer.
type PostResult struct {
	Success  bool   `json:"success"`
	TweetID  string `json:"tweet_id"`
	TweetURL string `json:"tweet_url"`
	Error    string `json:"error"`
}

// Poster talks to the tweet-posting service.
type Poster struct {
	baseURL       string
	healthTimeout time.Duration
	httpClient    *http.Client
}

// NewPoster creates a client for the service at baseURL.
func NewPoster(baseURL string, healthTimeout, postTimeout time.Duration) *Poster {
	return &Poster{
		baseURL:       strings.TrimRight(baseURL, "/"),
		healthTimeout: healthTimeout,
		httpClient:    &http.Client{Timeout: postTimeout},
	}
}

// Health checks that the service is up.
func (p *Poster) Health(ctx context.Context) error {
	if p.healthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.healthTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}
	return nil
}

// Post sends a tweet.
func (p *Poster) Post(ctx context.Context, body PostRequest) (PostResult, error) {
	var res PostResult
	data, err := json.Marshal(body)
	if err != nil {
		return res, fmt.Errorf("failed to encode tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/post-tweet", bytes.NewReader(data))
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return res, fmt.Errorf("post request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("post returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && res.Error == "" {
		res.Success = false
		res.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return res, nil
}

// RemoteClient asks a web server's /api/generate-tweet for the taunt and
// falls back to a local template when that fails.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
	pick       func(n int) int
}

// NewRemoteClient creates a client for the server at baseURL.
func NewRemoteClient(baseURL string, timeout time.Duration, pick func(n int) int) *RemoteClient {
	return &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		pick:       pick,
	}
}

// Generate implements Generator.
func (c *RemoteClient) Generate(ctx context.Context, req Request) Response {
	resp, err := c.fetch(ctx, req)
	if err != nil {
		fb := Fallback(req, c.pick)
		fb.TwitterError = err.Error()
		return fb
	}
	return resp
}

func (c *RemoteClient) fetch(ctx context.Context, body Request) (Response, error) {
	var out Response
	data, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-tweet", bytes.NewReader(data))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("tweet request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode tweet: %w", err)
	}
	if out.Tweet == "" {
		return out, fmt.Errorf("tweet response is empty")
	}
	return out, nil
}
