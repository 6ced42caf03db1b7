package game

import (
	"math"

	"github.com/tomz197/invaders/internal/object"
	"github.com/tomz197/invaders/internal/physics"
)

// CameraFor centers the viewport on the player and clamps it to the map.
func CameraFor(px, py, viewW, viewH float64) object.Camera {
	return object.Camera{
		X: physics.Clamp(px-viewW/2, 0, math.Max(0, object.MapWidth-viewW)),
		Y: physics.Clamp(py-viewH/2, 0, math.Max(0, object.MapHeight-viewH)),
	}
}

func (e *Engine) movePlayer(s *object.GameState) {
	p := &s.Player

	var dx, dy float64
	if s.Keys.Any(object.KeyUp, object.KeyW) {
		dy--
	}
	if s.Keys.Any(object.KeyDown, object.KeyS) {
		dy++
	}
	if s.Keys.Any(object.KeyLeft, object.KeyA) {
		dx--
	}
	if s.Keys.Any(object.KeyRight, object.KeyD) {
		dx++
	}
	if dx == 0 && dy == 0 {
		return
	}

	// Diagonal input moves at the same speed as straight input.
	if dx != 0 && dy != 0 {
		dx, dy = physics.Normalize(dx, dy)
	}
	p.FacingX, p.FacingY = dx, dy

	p.X = physics.Clamp(p.X+dx*p.Speed, p.Width/2, object.MapWidth-p.Width/2)
	p.Y = physics.Clamp(p.Y+dy*p.Speed, p.Height/2, object.MapHeight-p.Height/2)
}

func (e *Engine) advanceBullets(s *object.GameState) {
	p := &s.Player
	kept := p.Bullets[:0]
	for _, b := range p.Bullets {
		b.X += b.VX
		b.Y += b.VY
		if insideMap(b.X, b.Y) {
			kept = append(kept, b)
		}
	}
	p.Bullets = kept
}

// advanceMonsters steers every monster straight at the player, then drops
// monsters that touched the player or left the map. The touch test uses
// quarter-size boxes, smaller than the sprites.
func (e *Engine) advanceMonsters(s *object.GameState) {
	p := &s.Player
	kept := s.Monsters[:0]
	for _, m := range s.Monsters {
		hx, hy := physics.Heading(m.X, m.Y, p.X, p.Y)
		m.VX = hx * m.Speed
		m.VY = hy * m.Speed
		m.X += m.VX
		m.Y += m.VY

		if physics.BoxesOverlap(m.X, m.Y, m.Width/4, m.Height/4, p.X, p.Y, p.Width/4, p.Height/4) {
			loseLife(p)
			continue
		}
		if !insideMap(m.X, m.Y) {
			continue
		}
		kept = append(kept, m)
	}
	s.Monsters = kept
}
