// Package object defines the plain data the simulation runs on.
// Types here carry no behaviour beyond construction; the game package
// advances them and the render package draws them.
package object

// World dimensions in world units.
const (
	MapWidth  = 6000.0
	MapHeight = 6000.0
)

// Player
const (
	PlayerSize  = 32.0
	PlayerSpeed = 6.0
	PlayerLives = 10
)

// Bullet
const BulletSpeed = 10.0

// Boss
const (
	BossWidth  = 288.0
	BossHeight = 252.0
	BossSpeed  = 0.5
	BossHealth = 1000
)

// Key names a key in the key-state map. Arrow keys and their WASD aliases
// are distinct entries; the engine treats them as equivalent.
type Key string

const (
	KeyUp    Key = "up"
	KeyDown  Key = "down"
	KeyLeft  Key = "left"
	KeyRight Key = "right"
	KeyW     Key = "w"
	KeyA     Key = "a"
	KeyS     Key = "s"
	KeyD     Key = "d"
)

// Keys is the key-state map: true while a key is held.
type Keys map[Key]bool

// Any reports whether any of the given keys is held.
func (k Keys) Any(keys ...Key) bool {
	for _, key := range keys {
		if k[key] {
			return true
		}
	}
	return false
}

// Bullet is a projectile owned by the player.
type Bullet struct {
	X, Y   float64
	VX, VY float64
}

// Player is the ship controlled by the user. Position is the sprite center.
type Player struct {
	X, Y          float64
	Width, Height float64
	Speed         float64
	Lives         int
	Bullets       []Bullet

	// Facing is the last non-zero movement direction (unit vector).
	FacingX, FacingY float64
}

// NewPlayer returns a player at the map center with full lives.
func NewPlayer() Player {
	return Player{
		X:       MapWidth / 2,
		Y:       MapHeight / 2,
		Width:   PlayerSize,
		Height:  PlayerSize,
		Speed:   PlayerSpeed,
		Lives:   PlayerLives,
		FacingY: -1,
	}
}

// Monster chases the player. Position is the sprite center.
type Monster struct {
	X, Y          float64
	Width, Height float64
	VX, VY        float64
	Speed         float64
	Points        int
	Design        int // index into the renderer's sprite table
}

// Boss is the single large enemy that appears once per session.
type Boss struct {
	X, Y          float64
	Width, Height float64
	VX, VY        float64
	Speed         float64
	Health        int
	MaxHealth     int
	SpawnTimer    int // ticks since the last minion spawn
	Active        bool
}

// NewBoss returns an active boss at full health centered on (x, y).
func NewBoss(x, y float64) *Boss {
	return &Boss{
		X:         x,
		Y:         y,
		Width:     BossWidth,
		Height:    BossHeight,
		Speed:     BossSpeed,
		Health:    BossHealth,
		MaxHealth: BossHealth,
		Active:    true,
	}
}

// Camera is the top-left corner of the viewport in world coordinates.
type Camera struct {
	X, Y float64
}
