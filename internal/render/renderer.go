// Package render draws a GameState onto a terminal canvas.
//
// The canvas logical size is the viewport, so screen coordinates are world
// coordinates minus the camera. Nothing here writes to the state.
package render

import (
	"math"
	"time"

	"github.com/tomz197/invaders/internal/draw"
	"github.com/tomz197/invaders/internal/object"
)

const (
	starGridSize    = 50.0
	starProbability = 0.4
	starGlowAlpha   = float64(0x33) / 255
	bulletRadius    = 6.0
	bossGlowAlpha   = float64(0x33) / 255
	bossGlowScale   = 0.6

	healthBarHeight = 16.0
	healthBarGap    = 10.0

	defaultBlinkPeriod = 200 * time.Millisecond
)

// Frame carries per-frame values that are cosmetic only.
type Frame struct {
	// Now drives the boss eye blink.
	Now time.Time
}

// Renderer draws scenes. It is stateless apart from its settings and may be
// shared between sessions.
type Renderer struct {
	blinkPeriod time.Duration
}

// New creates a renderer with default settings.
func New() *Renderer {
	return &Renderer{blinkPeriod: defaultBlinkPeriod}
}

// Draw paints the world as seen by s.Camera: background stars, bullets,
// monsters, the boss and finally the player.
func (r *Renderer) Draw(c *draw.Canvas, s *object.GameState, f Frame) {
	cam := s.Camera
	c.Clear(backgroundColor)

	drawStars(c, cam)
	for _, b := range s.Player.Bullets {
		c.RadialGradient(math.Floor(b.X-cam.X), math.Floor(b.Y-cam.Y), bulletRadius, bulletColor, 1)
	}
	for i := range s.Monsters {
		drawMonster(c, &s.Monsters[i], cam)
	}
	if s.BossActive() {
		r.drawBoss(c, s.Boss, cam, f)
	}
	drawPlayer(c, &s.Player, cam)
}

// star returns the star at a grid point, if any. The hash is a pure function
// of world position so the field does not shimmer as the camera moves.
func star(wx, wy float64) (col draw.Color, size float64, ok bool) {
	h := math.Sin(wx*12.9898+wy*78.233) * 43758.5453
	rnd := h - math.Floor(h)
	if rnd >= starProbability {
		return draw.NoColor, 0, false
	}
	return starColors[int(rnd*float64(len(starColors)))], starSizes[int(rnd*float64(len(starSizes)))], true
}

func drawStars(c *draw.Canvas, cam object.Camera) {
	w, h := c.LogicalWidth(), c.LogicalHeight()
	for wx := math.Floor(cam.X/starGridSize) * starGridSize; wx < cam.X+w+starGridSize; wx += starGridSize {
		for wy := math.Floor(cam.Y/starGridSize) * starGridSize; wy < cam.Y+h+starGridSize; wy += starGridSize {
			col, size, ok := star(wx, wy)
			if !ok {
				continue
			}
			sx, sy := wx-cam.X, wy-cam.Y
			c.BlendRect(sx-1, sy-1, size+2, size+2, col, starGlowAlpha)
			c.FillRect(sx, sy, size, size, col)
		}
	}
}

// drawSprite paints sp with its top-left corner at (x, y).
func drawSprite(c *draw.Canvas, sp Sprite, x, y, pixel float64) {
	for row, line := range sp.Rows {
		for col := 0; col < len(line); col++ {
			color, ok := sp.Palette[line[col]]
			if !ok {
				continue
			}
			c.FillRect(x+float64(col)*pixel, y+float64(row)*pixel, pixel, pixel, color)
		}
	}
}

// topLeft converts an entity center to the screen position of its top-left corner.
func topLeft(x, y, w, h float64, cam object.Camera) (float64, float64) {
	return math.Floor(x - cam.X - w/2), math.Floor(y - cam.Y - h/2)
}

func drawPlayer(c *draw.Canvas, p *object.Player, cam object.Camera) {
	x, y := topLeft(p.X, p.Y, p.Width, p.Height, cam)
	drawSprite(c, playerSprite, x, y, playerPixelSize)
}

func drawMonster(c *draw.Canvas, m *object.Monster, cam object.Camera) {
	x, y := topLeft(m.X, m.Y, m.Width, m.Height, cam)
	drawSprite(c, monsterSpriteFor(m.Design), x, y, 4*(m.Width/32))
}

// monsterSpriteFor maps a design index onto the sprite table.
func monsterSpriteFor(design int) Sprite {
	n := len(monsterSprites)
	return monsterSprites[((design%n)+n)%n]
}

func (r *Renderer) drawBoss(c *draw.Canvas, b *object.Boss, cam object.Camera, f Frame) {
	x, y := topLeft(b.X, b.Y, b.Width, b.Height, cam)

	c.RadialGradient(x+b.Width/2, y+b.Height/2, b.Width*bossGlowScale, bossGlowColor, bossGlowAlpha)
	drawSprite(c, bossSprite, x, y, bossPixelSize)

	glow := r.eyeGlow(f.Now)
	eye := bossSprite.Palette['B']
	for _, e := range bossEyes {
		c.RadialGradient(x+float64(e[0])*bossPixelSize, y+float64(e[1])*bossPixelSize, bossPixelSize*2, eye, glow)
	}

	drawHealthBar(c, b, x, y)
}

// eyeGlow oscillates in [0, 1].
func (r *Renderer) eyeGlow(now time.Time) float64 {
	t := float64(now.UnixNano()) / float64(r.blinkPeriod)
	return math.Sin(t)*0.5 + 0.5
}

func drawHealthBar(c *draw.Canvas, b *object.Boss, x, y float64) {
	barY := y - healthBarHeight - healthBarGap
	c.FillRect(x, barY, b.Width, healthBarHeight, healthBarBg)

	ratio := healthRatio(b)
	c.FillRect(x, barY, b.Width*ratio, healthBarHeight, healthColor(ratio))
	c.StrokeRect(x, barY, b.Width, healthBarHeight, draw.White)
}

func healthRatio(b *object.Boss) float64 {
	if b.MaxHealth <= 0 {
		return 0
	}
	return math.Max(0, float64(b.Health)/float64(b.MaxHealth))
}

// healthColor picks the health bar fill for a remaining-health ratio.
func healthColor(ratio float64) draw.Color {
	switch {
	case ratio > 0.6:
		return draw.Green
	case ratio > 0.3:
		return draw.Yellow
	default:
		return draw.Red
	}
}
