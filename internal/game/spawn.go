package game

import (
	"math"

	"github.com/tomz197/invaders/internal/object"
	"github.com/tomz197/invaders/internal/physics"
)

// spawnAmbient rolls for one monster just outside the viewport. Nothing
// spawns this way while a boss is active.
func (e *Engine) spawnAmbient(s *object.GameState) {
	if s.BossActive() {
		return
	}
	if e.rng.Float64() >= AmbientSpawnChance {
		return
	}
	s.Monsters = append(s.Monsters, e.ambientMonster(s.Player.X, s.Player.Y))
}

// ambientMonster draws, in order: angle, size class, speed, design.
func (e *Engine) ambientMonster(px, py float64) object.Monster {
	angle := e.rng.Float64() * 2 * math.Pi
	dist := math.Max(e.viewW, e.viewH)
	small := e.rng.Float64() > SmallMonsterThreshold

	m := object.Monster{
		X: px + math.Cos(angle)*dist,
		Y: py + math.Sin(angle)*dist,
	}
	if small {
		m.Width = MonsterBaseSize * SmallMonsterScale
		m.Points = SmallMonsterPoints
		m.Speed = e.rng.Float64()*1.2 + 0.8
	} else {
		m.Width = MonsterBaseSize * BigMonsterScale
		m.Points = BigMonsterPoints
		m.Speed = e.rng.Float64()*0.6 + 0.2
	}
	m.Height = m.Width
	m.Design = int(e.rng.Float64() * MonsterDesigns)
	return m
}

// minion draws, in order: angle, speed, design.
func (e *Engine) minion(b *object.Boss) object.Monster {
	angle := e.rng.Float64() * 2 * math.Pi
	return object.Monster{
		X:      b.X + math.Cos(angle)*BossMinionDistance,
		Y:      b.Y + math.Sin(angle)*BossMinionDistance,
		Width:  MonsterBaseSize,
		Height: MonsterBaseSize,
		Speed:  e.rng.Float64()*1.2 + 0.8,
		Points: BossMinionPoints,
		Design: int(e.rng.Float64() * MonsterDesigns),
	}
}

// updateBoss closes in while the player is beyond stand-off range and
// wanders otherwise, then counts toward the next minion.
func (e *Engine) updateBoss(s *object.GameState) {
	if !s.BossActive() {
		return
	}
	b := s.Boss
	p := &s.Player

	dx := p.X - b.X
	dy := p.Y - b.Y
	dist := math.Hypot(dx, dy)
	if dist > BossStandOff {
		b.VX = dx / dist * b.Speed
		b.VY = dy / dist * b.Speed
	} else if e.rng.Float64() < BossHeadingReroll {
		angle := e.rng.Float64() * 2 * math.Pi
		b.VX = math.Cos(angle) * b.Speed
		b.VY = math.Sin(angle) * b.Speed
	}
	b.X = physics.Clamp(b.X+b.VX, 0, object.MapWidth)
	b.Y = physics.Clamp(b.Y+b.VY, 0, object.MapHeight)

	b.SpawnTimer++
	if b.SpawnTimer >= BossMinionPeriod {
		b.SpawnTimer = 0
		s.Monsters = append(s.Monsters, e.minion(b))
	}
}

// checkBossSpawn brings in the boss once the score allows it, at most once
// per session. Regular monsters are cleared when it arrives.
func (e *Engine) checkBossSpawn(s *object.GameState) {
	if s.Score < BossScoreThreshold || s.Boss != nil || s.BossDefeated {
		return
	}
	angle := e.rng.Float64() * 2 * math.Pi
	p := &s.Player
	s.Boss = object.NewBoss(
		physics.Clamp(p.X+math.Cos(angle)*BossSpawnDistance, 0, object.MapWidth),
		physics.Clamp(p.Y+math.Sin(angle)*BossSpawnDistance, 0, object.MapHeight),
	)
	s.Monsters = s.Monsters[:0]
}
