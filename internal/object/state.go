package object

// GameState is the aggregate root of one play session. A single instance is
// owned by the loop driver and handed by pointer to the engine each tick.
type GameState struct {
	Player   Player
	Camera   Camera
	Monsters []Monster
	Boss     *Boss // nil when no boss exists
	Score    int
	Keys     Keys

	IsGameOver   bool
	BossDefeated bool
	IsPaused     bool

	// Tick counts simulated ticks since the last restart.
	Tick uint64
}

// NewGameState returns a fresh session state: full lives, no enemies,
// player at the map center.
func NewGameState() *GameState {
	return &GameState{
		Player: NewPlayer(),
		Keys:   make(Keys),
	}
}

// BossActive reports whether an active boss is present.
func (s *GameState) BossActive() bool {
	return s.Boss != nil && s.Boss.Active
}
