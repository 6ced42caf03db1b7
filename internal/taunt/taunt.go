// Package taunt writes the boss's tweet at the end of a game.
//
// A language model writes the text when one is configured; otherwise, or
// when it fails, a local template is used. The text is then optionally sent
// to a tweet-posting service. The caller always gets a usable tweet.
package taunt

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/tomz197/invaders/internal/telemetry"
)

// Request describes the finished game.
type Request struct {
	PlayerAddress string `json:"playerAddress"`
	Score         int    `json:"score"`
	BossDefeated  bool   `json:"bossDefeated"`
}

// Response carries the tweet and what happened to it. Success is true only
// when the tweet was posted; otherwise ShareURL lets the player post it.
type Response struct {
	Success      bool   `json:"success"`
	Tweet        string `json:"tweet"`
	ShareURL     string `json:"shareUrl,omitempty"`
	TweetID      string `json:"tweetId,omitempty"`
	TweetURL     string `json:"tweetUrl,omitempty"`
	TwitterError string `json:"twitterError,omitempty"`
	BossDefeated bool   `json:"bossDefeated"`
}

// Generator produces a taunt for a finished game.
type Generator interface {
	Generate(ctx context.Context, req Request) Response
}

// Completer turns a system and user prompt into text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Publisher posts tweets.
type Publisher interface {
	Health(ctx context.Context) error
	Post(ctx context.Context, p PostRequest) (PostResult, error)
}

const (
	unknownPlayer   = "Unknown"
	fallbackMessage = "Failed to generate tweet with AI, using mock tweet instead"
	noPosterMessage = "Tweet posting service not configured"
	systemPrompt    = "You are a funny AI writing tweets from the point of view of a video game boss."
	shareBase       = "https://twitter.com/intent/tweet?text="
)

// ShareURL returns a tweet intent link for text. Spaces encode as %20.
func ShareURL(text string) string {
	return shareBase + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func playerName(addr string) string {
	if addr == "" {
		return unknownPlayer
	}
	return addr
}

func userPrompt(req Request) string {
	if req.BossDefeated {
		return fmt.Sprintf("Write a funny tweet from the point of view of a game boss who was just defeated. "+
			"The player's wallet address is %s and they scored %d points. "+
			"The tweet should show the boss's disappointment but also congratulate the player. Limit 280 characters.",
			playerName(req.PlayerAddress), req.Score)
	}
	return fmt.Sprintf("Write a funny tweet from the point of view of a game boss mocking a player who just lost. "+
		"The player's wallet address is %s and only scored %d points. "+
		"The tweet should tease the player and challenge them to come back and try again. Limit 280 characters.",
		playerName(req.PlayerAddress), req.Score)
}

var (
	defeatedTemplates = []string{
		"Unbelievable! I, the mighty Boss, was just defeated by %s with %d points. Congrats, but next time I won't go so easy! #GameOver #BossDefeated",
		"A dark day for me! %s beat me with %d points. I will return stronger! #Respect #WillBeBack",
		"Wow! %s is a formidable opponent! Beat me with %d points. I need more training! #Impressed #GoodGame",
	}
	victoriousTemplates = []string{
		"Haha! %s challenged me and failed miserably with only %d points. Come back when you're ready! #TooEasy #BossFTW",
		"A bad day for %s! Only %d points? I didn't even use my full power! #GetGood #TryAgain",
		"%s just got crushed with only %d points. Maybe try another game? Or... try again and prove me wrong? #Challenge #ComeBackStronger",
	}
)

// FallbackTweet picks a local template. pick returns an index in [0, n).
func FallbackTweet(req Request, pick func(n int) int) string {
	templates := victoriousTemplates
	if req.BossDefeated {
		templates = defeatedTemplates
	}
	return fmt.Sprintf(templates[pick(len(templates))], playerName(req.PlayerAddress), req.Score)
}

// Fallback builds the response used when no language model answered.
func Fallback(req Request, pick func(n int) int) Response {
	tweet := FallbackTweet(req, pick)
	return Response{
		Tweet:        tweet,
		ShareURL:     ShareURL(tweet),
		TwitterError: fallbackMessage,
		BossDefeated: req.BossDefeated,
	}
}

// cleanTweet trims whitespace and wrapping quotes from model output.
func cleanTweet(s string) string {
	s = strings.TrimSpace(stripControls(s))
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
			continue
		}
		break
	}
	return s
}

// stripControls turns line breaks and tabs into spaces and drops every other
// C0/C1 control rune, so a tweet can never carry terminal escapes.
func stripControls(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// Service generates taunts locally.
type Service struct {
	llm     Completer
	poster  Publisher
	log     zerolog.Logger
	metrics *telemetry.Metrics
	pick    func(n int) int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCompleter sets the language model.
func WithCompleter(c Completer) ServiceOption {
	return func(s *Service) { s.llm = c }
}

// WithPublisher sets the tweet-posting service.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.poster = p }
}

// WithMetrics sets the instruments used to count fallbacks.
func WithMetrics(m *telemetry.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithPicker overrides the random template choice.
func WithPicker(pick func(n int) int) ServiceOption {
	return func(s *Service) { s.pick = pick }
}

// NewService creates a service. Without a completer every tweet comes from
// the local templates.
func NewService(log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{log: log, pick: rand.IntN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate implements Generator.
func (s *Service) Generate(ctx context.Context, req Request) Response {
	s.log.Info().
		Str("player", playerName(req.PlayerAddress)).
		Int("score", req.Score).
		Bool("bossDefeated", req.BossDefeated).
		Msg("Processing tweet request")

	if s.llm == nil {
		s.metrics.TauntFallback(ctx, "no_llm")
		return Fallback(req, s.pick)
	}

	text, err := s.llm.Complete(ctx, systemPrompt, userPrompt(req))
	text = cleanTweet(text)
	if err == nil && text == "" {
		err = fmt.Errorf("empty completion")
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Using mock tweet due to API error")
		s.metrics.TauntFallback(ctx, "llm_error")
		return Fallback(req, s.pick)
	}

	resp := Response{Tweet: text, BossDefeated: req.BossDefeated}
	if err := s.publish(ctx, req, text, &resp); err != nil {
		s.log.Warn().Err(err).Msg("Error posting tweet")
		resp.Success = false
		resp.TwitterError = err.Error()
		resp.ShareURL = ShareURL(text)
	}
	return resp
}

func (s *Service) publish(ctx context.Context, req Request, text string, resp *Response) error {
	if s.poster == nil {
		return fmt.Errorf("%s", noPosterMessage)
	}
	if err := s.poster.Health(ctx); err != nil {
		return fmt.Errorf("tweet service health check failed: %w", err)
	}
	res, err := s.poster.Post(ctx, PostRequest{
		TweetContent:  text,
		BossDefeated:  req.BossDefeated,
		PlayerAddress: req.PlayerAddress,
		Score:         req.Score,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("tweet service error: %s", res.Error)
	}
	s.log.Info().Str("tweetId", res.TweetID).Msg("Tweet posted")
	resp.Success = true
	resp.TweetID = res.TweetID
	resp.TweetURL = res.TweetURL
	return nil
}
