// Package web serves the landing page and the JSON API used by remote
// game clients.
package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/taunt"
)

const maxBody = 4 << 10

//go:embed index.html
var indexPage string

// Server holds the handlers' dependencies.
type Server struct {
	log         zerolog.Logger
	submitter   scoreboard.Submitter
	leaderboard scoreboard.Leaderboard
	taunts      taunt.Generator
	page        string
}

// Options configures NewServer. Nil backends answer as unconfigured.
type Options struct {
	SSHHost     string
	Submitter   scoreboard.Submitter
	Leaderboard scoreboard.Leaderboard
	Taunts      taunt.Generator
}

// NewServer creates a server.
func NewServer(log zerolog.Logger, opts Options) *Server {
	return &Server{
		log:         log,
		submitter:   opts.Submitter,
		leaderboard: opts.Leaderboard,
		taunts:      opts.Taunts,
		page:        strings.ReplaceAll(indexPage, "{{.SSHHost}}", opts.SSHHost),
	}
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/scores", s.handleSubmit).Methods(http.MethodPost)
	if s.taunts != nil {
		api.Handle("/generate-tweet", taunt.Handler(s.taunts, s.log)).Methods(http.MethodPost)
	}
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, s.page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, scoreboard.ErrNotConfigured)
		return
	}
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("n must be an integer"))
			return
		}
		n = v
	}

	entries, err := s.leaderboard.TopPlayers(r.Context(), scoreboard.ClampTop(n))
	if err != nil {
		s.log.Error().Err(err).Msg("Leaderboard query failed")
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, scoreboard.NewLeaderboardResponse(entries))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.submitter == nil {
		writeJSON(w, http.StatusServiceUnavailable, scoreboard.SubmitResponse{Error: scoreboard.ErrNotConfigured.Error()})
		return
	}
	var req scoreboard.SubmitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, scoreboard.SubmitResponse{Error: "invalid request body"})
		return
	}
	player, score, ts, err := scoreboard.ParseSubmitRequest(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, scoreboard.SubmitResponse{Error: err.Error()})
		return
	}

	improved, err := s.submitter.SubmitScore(r.Context(), player, score, ts)
	if err != nil {
		s.log.Error().Err(err).Str("player", player.String()).Msg("Score submission failed")
		writeJSON(w, statusFor(err), scoreboard.SubmitResponse{Error: err.Error()})
		return
	}
	s.log.Info().
		Str("player", player.String()).
		Uint32("score", score).
		Bool("improved", improved).
		Msg("Score submitted")
	writeJSON(w, http.StatusOK, scoreboard.SubmitResponse{Success: true, Improved: improved})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scoreboard.ErrNoWallet):
		return http.StatusBadRequest
	case errors.Is(err, scoreboard.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
