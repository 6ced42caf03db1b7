package taunt

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tomz197/invaders/internal/config"
	"github.com/tomz197/invaders/internal/telemetry"
)

const maxRequestBody = 4 << 10

// FromConfig builds the generator selected by cfg.Mode. It returns nil
// when taunts are off.
func FromConfig(cfg config.TauntConfig, log zerolog.Logger, m *telemetry.Metrics) (Generator, error) {
	switch cfg.Mode {
	case "off":
		return nil, nil
	case "remote":
		return NewRemoteClient(cfg.RemoteURL, cfg.LLMTimeout+cfg.PostTimeout, rand.IntN), nil
	case "", "local":
		opts := []ServiceOption{WithMetrics(m)}
		if cfg.GroqAPIKey != "" {
			llm, err := NewLLMClient(cfg.GroqURL, cfg.GroqAPIKey, cfg.GroqModel, cfg.ProxyURL, cfg.LLMTimeout)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithCompleter(llm))
		} else {
			log.Warn().Msg("GROQ_API_KEY not set, taunts will use local templates")
		}
		if cfg.PosterURL != "" {
			opts = append(opts, WithPublisher(NewPoster(cfg.PosterURL, cfg.HealthTimeout, cfg.PostTimeout)))
		}
		return NewService(log, opts...), nil
	default:
		return nil, fmt.Errorf("unknown taunt mode %q", cfg.Mode)
	}
}

// Handler serves POST /api/generate-tweet.
func Handler(gen Generator, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			log.Debug().Err(err).Msg("Bad tweet request")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, gen.Generate(r.Context(), req))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
