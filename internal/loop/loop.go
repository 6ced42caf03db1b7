// Package loop drives one game session: input, simulation, background
// collaborators and terminal output, at a fixed frame rate.
package loop

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tomz197/invaders/internal/draw"
	"github.com/tomz197/invaders/internal/game"
	"github.com/tomz197/invaders/internal/input"
	"github.com/tomz197/invaders/internal/object"
	"github.com/tomz197/invaders/internal/render"
	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/starknet"
	"github.com/tomz197/invaders/internal/taunt"
	"github.com/tomz197/invaders/internal/telemetry"
)

// Options configures a Session. Nil collaborators disable their feature.
type Options struct {
	TermSize draw.TermSizeFunc

	// Player is the wallet scores are saved for. The zero address means no
	// wallet is connected.
	Player starknet.Address

	Submitter       scoreboard.Submitter
	Leaderboard     scoreboard.Leaderboard
	LeaderboardSize int
	Taunts          taunt.Generator

	Logger  zerolog.Logger
	Metrics *telemetry.Metrics

	// Rand overrides the engine's random source.
	Rand game.Rand
}

// Session is one player's game. It owns its GameState exclusively; async
// tasks report back through a channel drained once per frame.
type Session struct {
	id       string
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	opts     Options
	lbSize   uint32
	w        io.Writer
	termSize draw.TermSizeFunc
	now      func() time.Time

	stream    *input.Stream
	readInput func() input.Input

	engine   *game.Engine
	renderer *render.Renderer
	canvas   *draw.Canvas
	cw       *draw.ChunkWriter

	state      *object.GameState
	screen     Screen
	prevScreen Screen
	ui         UIState
	textSpans  []textSpan

	results      chan taskResult
	tasks        sync.WaitGroup
	seq          [3]uint64 // latest task per resultKind
	cancelSubmit context.CancelFunc
	running      bool
}

// NewSession creates a session reading raw terminal input from r and
// drawing to w.
func NewSession(r io.Reader, w io.Writer, opts Options) *Session {
	termSize := opts.TermSize
	if termSize == nil {
		termSize = draw.DefaultTermSizeFunc
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var engineOpts []game.Option
	if opts.Rand != nil {
		engineOpts = append(engineOpts, game.WithRand(opts.Rand))
	}
	engine := game.NewEngine(engineOpts...)
	state := object.NewGameState()
	engine.Restart(state)

	viewW, viewH := engine.Viewport()
	termWidth, termHeight, _ := termSize()
	renderWidth, renderHeight, offsetCol, offsetRow := fitTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, viewW, viewH)
	canvas.SetOffset(offsetCol, offsetRow)

	id := uuid.NewString()
	stream := input.StartStream(br)
	s := &Session{
		id:       id,
		log:      opts.Logger.With().Str("session", id).Logger(),
		metrics:  opts.Metrics,
		opts:     opts,
		lbSize:   scoreboard.ClampTop(opts.LeaderboardSize),
		w:        w,
		termSize: termSize,
		now:      time.Now,
		stream:   stream,
		engine:   engine,
		renderer: render.New(),
		canvas:   canvas,
		cw:       draw.NewChunkWriter(w, offsetCol, offsetRow),
		state:    state,
		results:  make(chan taskResult, resultBuffer),
		running:  true,
	}
	s.readInput = func() input.Input { return input.ReadInput(stream) }
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Run plays until the player quits, the input closes or ctx is cancelled.
// It waits for background tasks before restoring the terminal.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	end := s.metrics.SessionStarted(ctx)
	defer end()

	s.log.Info().Str("player", s.opts.Player.String()).Msg("Session started")
	draw.EnterGameMode(s.w)
	s.fetchLeaderboard(ctx)

	ticker := time.NewTicker(targetFrameTime)
	defer ticker.Stop()

	var err error
	for s.running {
		frameStart := time.Now()
		if err = s.frame(ctx); err != nil {
			break
		}
		s.metrics.Frame(ctx, time.Since(frameStart))

		select {
		case <-ctx.Done():
			s.running = false
		case <-ticker.C:
		}
	}

	cancel()
	s.tasks.Wait()
	draw.LeaveGameMode(s.w)

	s.log.Info().
		Int("score", s.state.Score).
		Bool("bossDefeated", s.state.BossDefeated).
		Msg("Session ended")
	return err
}

// frame runs input, update, async delivery and draw once.
func (s *Session) frame(ctx context.Context) error {
	in := s.readInput()
	if in.Quit || in.Closed {
		s.running = false
		return nil
	}

	s.updateScreen()

	switch s.screen {
	case ScreenStart:
		s.updateStart(ctx, in)
	case ScreenPlaying:
		s.updatePlaying(ctx, in)
	case ScreenGameOver:
		s.updateGameOver(ctx, in)
	}

	s.drainResults(ctx)
	return s.drawFrame()
}

// updateScreen follows terminal resizes, keeping the canvas at the
// viewport's aspect ratio.
func (s *Session) updateScreen() {
	termWidth, termHeight, err := s.termSize()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := fitTermSize(termWidth, termHeight)

	if renderWidth != s.canvas.TerminalWidth() || renderHeight != s.canvas.TerminalHeight() ||
		offsetCol != s.canvas.OffsetCol() || offsetRow != s.canvas.OffsetRow() {
		draw.ClearScreen(s.cw)
		s.canvas.ForceRedraw()
		s.textSpans = s.textSpans[:0]
	}

	s.canvas.Resize(renderWidth, renderHeight)
	s.canvas.SetOffset(offsetCol, offsetRow)
	s.cw.SetOffset(offsetCol, offsetRow)
}

// fitTermSize picks the largest 16:9 area that fits the terminal and the
// render cap, and the offsets that center it.
func fitTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, maxTermWidth)
	renderHeight = min(termHeight, maxTermHeight)
	if h := renderWidth * aspectRows / aspectCols; h <= renderHeight {
		renderHeight = max(h, 1)
	} else {
		renderWidth = max(renderHeight*aspectCols/aspectRows, 1)
	}
	renderWidth = max(renderWidth, 1)
	offsetCol = max((termWidth-renderWidth)/2, 0)
	offsetRow = max((termHeight-renderHeight)/2, 0)
	return
}

func (s *Session) updateStart(ctx context.Context, in input.Input) {
	if in.Has('l') {
		s.fetchLeaderboard(ctx)
	}
	if in.Enter || in.Shots > 0 || len(in.Clicks) > 0 {
		s.startGame()
	}
}

func (s *Session) updatePlaying(ctx context.Context, in input.Input) {
	if in.Pause {
		s.engine.TogglePause(s.state)
	}

	s.state.Keys = in.Keys
	if s.state.Keys == nil {
		s.state.Keys = make(object.Keys)
	}

	cam := s.state.Camera
	for _, c := range in.Clicks {
		if x, y, ok := s.canvas.TerminalToLogical(c.Col, c.Row); ok {
			s.engine.Fire(s.state, cam.X+x, cam.Y+y)
		}
	}
	for range in.Shots {
		s.engine.FireForward(s.state)
	}

	s.engine.Step(s.state)

	if s.state.IsGameOver {
		s.gameOver(ctx)
	}
}

func (s *Session) updateGameOver(ctx context.Context, in input.Input) {
	if in.Enter || in.Restart || len(in.Clicks) > 0 {
		s.startGame()
		return
	}
	if in.Has('s') {
		s.startSubmit(ctx)
	}
	if in.Has('c') {
		s.abortSubmit()
	}
	if in.Has('l') {
		s.fetchLeaderboard(ctx)
	}
	if in.Has('t') {
		s.startTaunt(ctx)
	}
}

// startGame resets the game and the per-game UI, dropping results of
// tasks started for the previous game.
func (s *Session) startGame() {
	input.ResetKeyInput(s.stream)
	s.abortSubmit()
	s.engine.Restart(s.state)

	s.next(resultSubmit)
	s.next(resultTaunt)
	s.ui.Submit = SubmitState{}
	s.ui.Taunt = TauntState{}

	s.screen = ScreenPlaying
}

func (s *Session) gameOver(ctx context.Context) {
	s.screen = ScreenGameOver
	s.log.Info().
		Int("score", s.state.Score).
		Bool("bossDefeated", s.state.BossDefeated).
		Uint64("ticks", s.state.Tick).
		Msg("Game over")
	s.startTaunt(ctx)
}
