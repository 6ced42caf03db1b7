package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"github.com/rs/zerolog"
	"github.com/tomz197/invaders/internal/config"
	"github.com/tomz197/invaders/internal/draw"
	applog "github.com/tomz197/invaders/internal/logging"
	"github.com/tomz197/invaders/internal/loop"
	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/starknet"
	"github.com/tomz197/invaders/internal/taunt"
	"github.com/tomz197/invaders/internal/telemetry"
)

// Players get this long to finish before remaining connections are closed.
const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to a config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ssh server error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, logCloser, err := applog.New(applog.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Out:    os.Stderr,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	workingDir, workErr := os.Getwd()
	if workErr != nil {
		log.Warn().Err(workErr).Msg("Failed to get working directory")
	}
	log.Info().
		Str("host", cfg.SSH.Host).
		Str("port", cfg.SSH.Port).
		Str("hostKeyPath", cfg.SSH.HostKeyPath).
		Str("workingDir", workingDir).
		Msg("SSH config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := telemetry.New()
	if err != nil {
		return err
	}
	backends, err := scoreboard.Open(ctx, cfg, applog.Component(log, "scoreboard"))
	if err != nil {
		return err
	}
	defer backends.Close()

	taunts, err := taunt.FromConfig(cfg.Taunt, applog.Component(log, "taunt"), metrics)
	if err != nil {
		return err
	}

	// Sessions outlive the signal context so a shutdown lets running games
	// restore their terminals.
	sessCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()

	h := &gameHandler{
		ctx: sessCtx,
		log: applog.Component(log, "session"),
		opts: loop.Options{
			Submitter:       backends.Submitter,
			Leaderboard:     backends.Leaderboard,
			LeaderboardSize: cfg.Leaderboard.Size,
			Taunts:          taunts,
			Metrics:         metrics,
		},
	}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.SSH.Host, cfg.SSH.Port)),
		wish.WithMiddleware(
			h.middleware,
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if cfg.SSH.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.SSH.HostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serveErr := make(chan error, 1)
	log.Info().Str("addr", s.Addr).Msg("Starting SSH server")
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	// End running games, then wait for their connections to close.
	cancelSessions()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	h.wg.Wait()
	log.Info().Msg("Server stopped")
	return nil
}

// gameHandler runs one game session per SSH connection.
type gameHandler struct {
	ctx  context.Context
	log  zerolog.Logger
	opts loop.Options
	wg   sync.WaitGroup
}

func (h *gameHandler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}
		h.wg.Add(1)
		defer h.wg.Done()

		// The SSH user name doubles as the player's wallet address.
		player, err := starknet.ParseAddress(sess.User())
		if err != nil {
			player = starknet.Address{}
		}

		h.log.Info().
			Str("user", sess.User()).
			Str("terminal", pty.Term).
			Int("width", pty.Window.Width).
			Int("height", pty.Window.Height).
			Bool("wallet", !player.IsZero()).
			Msg("New game session")

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		opts := h.opts
		opts.TermSize = sizeTracker.getSize
		opts.Player = player
		opts.Logger = h.log

		ctx, cancel := context.WithCancel(sess.Context())
		defer cancel()
		stopAfter := context.AfterFunc(h.ctx, cancel)
		defer stopAfter()

		game := loop.NewSession(bufio.NewReader(sess), sess, opts)
		if err := game.Run(ctx); err != nil {
			h.log.Error().Err(err).Str("user", sess.User()).Msg("Game error")
		}
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
