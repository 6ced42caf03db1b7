package taunt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomz197/invaders/internal/config"
)

func first(int) int { return 0 }

type fakeLLM struct {
	text   string
	err    error
	system string
	user   string
}

func (f *fakeLLM) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.text, f.err
}

type fakePoster struct {
	healthErr error
	result    PostResult
	postErr   error
	posted    []PostRequest
}

func (f *fakePoster) Health(context.Context) error { return f.healthErr }

func (f *fakePoster) Post(_ context.Context, p PostRequest) (PostResult, error) {
	f.posted = append(f.posted, p)
	return f.result, f.postErr
}

func TestFallbackTweet(t *testing.T) {
	tweet := FallbackTweet(Request{PlayerAddress: "0xabc", Score: 1200, BossDefeated: true}, first)
	assert.Equal(t, "Unbelievable! I, the mighty Boss, was just defeated by 0xabc with 1200 points. Congrats, but next time I won't go so easy! #GameOver #BossDefeated", tweet)

	tweet = FallbackTweet(Request{Score: 7}, func(n int) int { return n - 1 })
	assert.True(t, strings.HasPrefix(tweet, "Unknown just got crushed with only 7 points."), tweet)
}

func TestShareURL(t *testing.T) {
	assert.Equal(t, "https://twitter.com/intent/tweet?text=a%20b%26c%2B%23d", ShareURL("a b&c+#d"))
}

func TestCleanTweet(t *testing.T) {
	assert.Equal(t, "hello", cleanTweet("  \"hello\"\n"))
	assert.Equal(t, "hi", cleanTweet("'\"hi\"'"))
	assert.Equal(t, `say "hi"`, cleanTweet(`say "hi"`))
	assert.Equal(t, "Haha[2J]0;pwned 🎮 you lose", cleanTweet("\"Haha\x1b[2J\x1b]0;pwned\x07 🎮\nyou lose\u009b\""))
	assert.Equal(t, `"`, cleanTweet(`"`))
}

func TestService_NoLLMUsesTemplates(t *testing.T) {
	s := NewService(zerolog.Nop(), WithPicker(first))

	resp := s.Generate(context.Background(), Request{PlayerAddress: "0x1", Score: 5})
	assert.False(t, resp.Success)
	assert.Equal(t, fallbackMessage, resp.TwitterError)
	assert.Equal(t, ShareURL(resp.Tweet), resp.ShareURL)
	assert.Contains(t, resp.Tweet, "0x1")
}

func TestService_LLMErrorSkipsPosting(t *testing.T) {
	poster := &fakePoster{result: PostResult{Success: true}}
	s := NewService(zerolog.Nop(),
		WithCompleter(&fakeLLM{err: errors.New("rate limited")}),
		WithPublisher(poster),
		WithPicker(first),
	)

	resp := s.Generate(context.Background(), Request{Score: 5, BossDefeated: true})
	assert.False(t, resp.Success)
	assert.Equal(t, fallbackMessage, resp.TwitterError)
	assert.True(t, resp.BossDefeated)
	assert.Empty(t, poster.posted)
}

func TestService_EmptyCompletionFallsBack(t *testing.T) {
	s := NewService(zerolog.Nop(), WithCompleter(&fakeLLM{text: ` "" `}), WithPicker(first))

	resp := s.Generate(context.Background(), Request{Score: 5})
	assert.Equal(t, fallbackMessage, resp.TwitterError)
	assert.NotEmpty(t, resp.Tweet)
}

func TestService_Posts(t *testing.T) {
	llm := &fakeLLM{text: "\"You got lucky.\""}
	poster := &fakePoster{result: PostResult{Success: true, TweetID: "42", TweetURL: "https://x.com/boss/status/42"}}
	s := NewService(zerolog.Nop(), WithCompleter(llm), WithPublisher(poster))

	resp := s.Generate(context.Background(), Request{PlayerAddress: "0xabc", Score: 900, BossDefeated: true})
	assert.Equal(t, Response{
		Success:      true,
		Tweet:        "You got lucky.",
		TweetID:      "42",
		TweetURL:     "https://x.com/boss/status/42",
		BossDefeated: true,
	}, resp)

	require.Len(t, poster.posted, 1)
	assert.Equal(t, PostRequest{TweetContent: "You got lucky.", BossDefeated: true, PlayerAddress: "0xabc", Score: 900}, poster.posted[0])
	assert.Contains(t, llm.user, "0xabc")
	assert.Contains(t, llm.user, "900")
	assert.Contains(t, llm.user, "defeated")
}

func TestService_PosterFailures(t *testing.T) {
	cases := map[string]struct {
		poster  Publisher
		wantErr string
	}{
		"unconfigured": {nil, noPosterMessage},
		"unhealthy":    {&fakePoster{healthErr: errors.New("down")}, "tweet service health check failed: down"},
		"rejected":     {&fakePoster{result: PostResult{Error: "duplicate"}}, "tweet service error: duplicate"},
		"unreachable":  {&fakePoster{postErr: errors.New("refused")}, "refused"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			opts := []ServiceOption{WithCompleter(&fakeLLM{text: "Try again."})}
			if tc.poster != nil {
				opts = append(opts, WithPublisher(tc.poster))
			}
			resp := NewService(zerolog.Nop(), opts...).Generate(context.Background(), Request{Score: 1})

			assert.False(t, resp.Success)
			assert.Equal(t, "Try again.", resp.Tweet)
			assert.Equal(t, tc.wantErr, resp.TwitterError)
			assert.Equal(t, ShareURL("Try again."), resp.ShareURL)
		})
	}
}

func TestLLMClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3-8b-8192", req.Model)
		assert.Equal(t, llmMaxTokens, req.MaxTokens)
		assert.InDelta(t, llmTemperature, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Nice try.  "}}]}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(srv.URL, "secret", "llama3-8b-8192", "", time.Second)
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Nice try.", text)
}

func TestLLMClient_Errors(t *testing.T) {
	_, err := NewLLMClient("http://x", "", "m", "", time.Second)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewLLMClient("http://x", "k", "m", "://bad", time.Second)
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(srv.URL, "k", "m", "", time.Second)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	assert.EqualError(t, err, "completion returned status 429: slow down")
}

func TestPoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/post-tweet":
			var req PostRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello", req.TweetContent)
			_, _ = w.Write([]byte(`{"success":true,"tweet_id":"7","tweet_url":"https://x.com/i/7"}`))
		}
	}))
	defer srv.Close()

	p := NewPoster(srv.URL+"/", time.Second, time.Second)
	require.NoError(t, p.Health(context.Background()))

	res, err := p.Post(context.Background(), PostRequest{TweetContent: "hello"})
	require.NoError(t, err)
	assert.Equal(t, PostResult{Success: true, TweetID: "7", TweetURL: "https://x.com/i/7"}, res)
}

func TestPoster_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewPoster(srv.URL, time.Second, time.Second).Health(context.Background())
	assert.EqualError(t, err, "health returned status 503")
}

func TestHandlerAndRemoteClient(t *testing.T) {
	gen := NewService(zerolog.Nop(), WithPicker(first))
	srv := httptest.NewServer(Handler(gen, zerolog.Nop()))
	defer srv.Close()

	resp := NewRemoteClient(srv.URL+"/", time.Second, first).Generate(context.Background(), Request{PlayerAddress: "0x9", Score: 3})
	assert.Equal(t, fallbackMessage, resp.TwitterError)
	assert.Contains(t, resp.Tweet, "0x9")

	bad, err := http.Post(srv.URL+"/api/generate-tweet", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRemoteClient_FallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp := NewRemoteClient(srv.URL, time.Second, first).Generate(context.Background(), Request{Score: 3, BossDefeated: true})
	assert.False(t, resp.Success)
	assert.Equal(t, "tweet request returned status 500", resp.TwitterError)
	assert.True(t, strings.HasPrefix(resp.Tweet, "Unbelievable!"))
	assert.NotEmpty(t, resp.ShareURL)
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	tc := cfg.Taunt
	tc.GroqAPIKey = ""
	gen, err := FromConfig(tc, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.IsType(t, &Service{}, gen)
	assert.Nil(t, gen.(*Service).llm)

	tc.GroqAPIKey = "k"
	tc.PosterURL = "http://127.0.0.1:5000"
	gen, err = FromConfig(tc, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.NotNil(t, gen.(*Service).llm)
	assert.NotNil(t, gen.(*Service).poster)

	tc.Mode = "remote"
	gen, err = FromConfig(tc, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.IsType(t, &RemoteClient{}, gen)

	tc.Mode = "off"
	gen, err = FromConfig(tc, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.Nil(t, gen)
}
