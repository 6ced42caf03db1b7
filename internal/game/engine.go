// Package game advances a GameState by discrete ticks.
package game

import (
	"math/rand/v2"

	"github.com/tomz197/invaders/internal/object"
	"github.com/tomz197/invaders/internal/physics"
)

// Rand is the random source used for spawning and boss wandering.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Engine runs the simulation. It holds no game state of its own, only
// configuration and scratch buffers, so one Engine may drive one session.
type Engine struct {
	rng   Rand
	viewW float64
	viewH float64

	grid    *physics.SpatialGrid
	removed []bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithViewport sets the viewport size used for the camera and spawn distance.
func WithViewport(width, height float64) Option {
	return func(e *Engine) {
		e.viewW = width
		e.viewH = height
	}
}

// NewEngine creates an engine with the default viewport and a global random source.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:   globalRand{},
		viewW: ViewWidth,
		viewH: ViewHeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.grid = physics.NewSpatialGrid(object.MapWidth, object.MapHeight, MonsterBaseSize*BigMonsterScale)
	return e
}

// Step advances the state by exactly one tick. A paused or finished game is left untouched.
func (e *Engine) Step(s *object.GameState) {
	if s.IsGameOver || s.IsPaused {
		return
	}
	s.Tick++

	e.movePlayer(s)
	e.advanceBullets(s)
	e.advanceMonsters(s)
	e.spawnAmbient(s)
	e.updateBoss(s)
	e.resolveHits(s)
	e.resolveContact(s)
	s.Camera = CameraFor(s.Player.X, s.Player.Y, e.viewW, e.viewH)
	e.checkBossSpawn(s)

	if s.Player.Lives <= 0 {
		s.IsGameOver = true
	}
}

// Fire spawns a bullet at the player travelling toward the world point (tx, ty).
func (e *Engine) Fire(s *object.GameState, tx, ty float64) {
	if s.IsGameOver || s.IsPaused {
		return
	}
	p := &s.Player
	vx, vy := physics.Heading(p.X, p.Y, tx, ty)
	p.Bullets = append(p.Bullets, object.Bullet{
		X:  p.X,
		Y:  p.Y,
		VX: vx * object.BulletSpeed,
		VY: vy * object.BulletSpeed,
	})
}

// FireForward fires along the player's last movement direction.
func (e *Engine) FireForward(s *object.GameState) {
	p := &s.Player
	e.Fire(s, p.X+p.FacingX, p.Y+p.FacingY)
}

// Restart resets every field of s to the start of a new session.
func (e *Engine) Restart(s *object.GameState) {
	*s = *object.NewGameState()
	s.Camera = CameraFor(s.Player.X, s.Player.Y, e.viewW, e.viewH)
}

// TogglePause pauses or resumes a running game.
func (e *Engine) TogglePause(s *object.GameState) {
	if s.IsGameOver {
		return
	}
	s.IsPaused = !s.IsPaused
}

// Viewport returns the viewport size the engine was configured with.
func (e *Engine) Viewport() (width, height float64) {
	return e.viewW, e.viewH
}

func loseLife(p *object.Player) {
	if p.Lives > 0 {
		p.Lives--
	}
}

func insideMap(x, y float64) bool {
	return x > 0 && x < object.MapWidth && y > 0 && y < object.MapHeight
}
