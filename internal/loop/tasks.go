package loop

import (
	"context"
	"errors"
	"time"

	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/taunt"
)

// next starts a new generation for kind; older results of that kind are
// dropped on delivery.
func (s *Session) next(kind resultKind) uint64 {
	s.seq[kind]++
	return s.seq[kind]
}

// spawn runs task in the background with a timeout and posts its result,
// unless ctx ends first.
func (s *Session) spawn(ctx context.Context, timeout time.Duration, task func(ctx context.Context) taskResult) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		r := task(tctx)
		select {
		case s.results <- r:
		case <-ctx.Done():
		}
	}()
}

// drainResults applies every result that has arrived, without blocking.
func (s *Session) drainResults(ctx context.Context) {
	for {
		select {
		case r := <-s.results:
			if r.gen != s.seq[r.kind] {
				continue
			}
			switch r.kind {
			case resultLeaderboard:
				s.applyLeaderboard(r)
			case resultSubmit:
				s.applySubmit(ctx, r)
			case resultTaunt:
				s.applyTaunt(r)
			}
		default:
			return
		}
	}
}

func (s *Session) fetchLeaderboard(ctx context.Context) {
	lb := s.opts.Leaderboard
	if lb == nil {
		s.ui.Leaderboard = LeaderboardState{Loaded: true, Err: scoreboard.ErrNotConfigured}
		return
	}
	gen := s.next(resultLeaderboard)
	n := s.lbSize
	s.ui.Leaderboard.Loading = true

	s.spawn(ctx, leaderboardTimeout, func(ctx context.Context) taskResult {
		entries, err := lb.TopPlayers(ctx, n)
		return taskResult{kind: resultLeaderboard, gen: gen, entries: entries, err: err}
	})
}

func (s *Session) applyLeaderboard(r taskResult) {
	if r.err != nil {
		s.log.Warn().Err(r.err).Msg("Leaderboard fetch failed")
	}
	s.ui.Leaderboard = LeaderboardState{Loaded: true, Entries: r.entries, Err: r.err}
}

// startSubmit saves the final score. It is a no-op while a save is in
// flight, after success and after a validation error.
func (s *Session) startSubmit(ctx context.Context) {
	switch st := s.ui.Submit; {
	case st.Status == SubmitSubmitting, st.Status == SubmitSuccess:
		return
	case st.Status == SubmitError && !st.Retryable:
		return
	}

	if s.opts.Player.IsZero() {
		s.ui.Submit = SubmitState{Status: SubmitError, Message: msgNoWallet}
		s.metrics.ScoreSubmitted(ctx, "rejected")
		return
	}
	sub := s.opts.Submitter
	if sub == nil {
		s.ui.Submit = SubmitState{Status: SubmitError, Message: msgNotConfigured}
		s.metrics.ScoreSubmitted(ctx, "rejected")
		return
	}

	gen := s.next(resultSubmit)
	player := s.opts.Player
	score := uint32(max(s.state.Score, 0))
	ts := uint64(s.now().Unix())

	sctx, cancel := context.WithCancel(ctx)
	s.cancelSubmit = cancel
	s.ui.Submit = SubmitState{Status: SubmitSubmitting}
	s.log.Info().Str("player", player.String()).Uint32("score", score).Msg("Submitting score")

	s.spawn(sctx, submitTimeout, func(ctx context.Context) taskResult {
		improved, err := sub.SubmitScore(ctx, player, score, ts)
		return taskResult{kind: resultSubmit, gen: gen, improved: improved, err: err}
	})
}

// abortSubmit cancels an in-flight save and returns to Idle.
func (s *Session) abortSubmit() {
	if s.cancelSubmit != nil {
		s.cancelSubmit()
		s.cancelSubmit = nil
	}
	if s.ui.Submit.Status != SubmitSubmitting {
		return
	}
	s.next(resultSubmit)
	s.ui.Submit = SubmitState{}
	s.log.Info().Msg("User aborted the transaction")
}

func (s *Session) applySubmit(ctx context.Context, r taskResult) {
	if s.cancelSubmit != nil {
		s.cancelSubmit()
		s.cancelSubmit = nil
	}

	switch err := r.err; {
	case err == nil:
		s.ui.Submit = SubmitState{Status: SubmitSuccess, Improved: r.improved}
		s.metrics.ScoreSubmitted(ctx, "ok")
		s.log.Info().Bool("improved", r.improved).Msg("Score saved")
		return
	case errors.Is(err, context.Canceled):
		s.ui.Submit = SubmitState{}
		return
	case errors.Is(err, scoreboard.ErrNoWallet):
		s.ui.Submit = SubmitState{Status: SubmitError, Message: msgNoWallet}
		s.metrics.ScoreSubmitted(ctx, "rejected")
	case errors.Is(err, scoreboard.ErrNotConfigured):
		s.ui.Submit = SubmitState{Status: SubmitError, Message: msgNotConfigured}
		s.metrics.ScoreSubmitted(ctx, "rejected")
	case errors.Is(err, context.DeadlineExceeded):
		s.ui.Submit = SubmitState{Status: SubmitError, Message: msgTimedOut, Retryable: true}
		s.metrics.ScoreSubmitted(ctx, "error")
	default:
		s.ui.Submit = SubmitState{Status: SubmitError, Message: msgSubmitFailed, Retryable: true}
		s.metrics.ScoreSubmitted(ctx, "error")
	}
	s.log.Warn().Err(r.err).Msg("Score submission failed")
}

// startTaunt asks for the boss's tweet about the current game.
func (s *Session) startTaunt(ctx context.Context) {
	gen := s.opts.Taunts
	if gen == nil {
		return
	}
	req := taunt.Request{Score: s.state.Score, BossDefeated: s.state.BossDefeated}
	if !s.opts.Player.IsZero() {
		req.PlayerAddress = s.opts.Player.String()
	}

	id := s.next(resultTaunt)
	s.ui.Taunt.Loading = true
	s.spawn(ctx, tauntTimeout, func(ctx context.Context) taskResult {
		return taskResult{kind: resultTaunt, gen: id, taunt: gen.Generate(ctx, req)}
	})
}

func (s *Session) applyTaunt(r taskResult) {
	resp := r.taunt
	s.ui.Taunt = TauntState{Response: &resp}
}
