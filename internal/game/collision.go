package game

import (
	"slices"

	"github.com/tomz197/invaders/internal/object"
	"github.com/tomz197/invaders/internal/physics"
)

// resolveHits tests every bullet against the boss first, then against
// monsters in slice order. Each bullet hits at most one target.
func (e *Engine) resolveHits(s *object.GameState) {
	p := &s.Player
	if len(p.Bullets) == 0 {
		return
	}
	e.indexMonsters(s.Monsters)

	kept := p.Bullets[:0]
	for _, b := range p.Bullets {
		if e.hitBoss(s, b) {
			continue
		}
		if i := e.firstMonsterHit(s.Monsters, b); i >= 0 {
			e.removed[i] = true
			s.Score += s.Monsters[i].Points
			continue
		}
		kept = append(kept, b)
	}
	p.Bullets = kept

	monsters := s.Monsters[:0]
	for i, m := range s.Monsters {
		if !e.removed[i] {
			monsters = append(monsters, m)
		}
	}
	s.Monsters = monsters
}

func (e *Engine) hitBoss(s *object.GameState, b object.Bullet) bool {
	if !s.BossActive() {
		return false
	}
	boss := s.Boss
	if !physics.PointInCircle(b.X, b.Y, boss.X, boss.Y, boss.Width/2) {
		return false
	}

	boss.Health -= BossBulletDamage
	if boss.Health <= 0 {
		boss.Active = false
		s.Score += BossReward
		s.Boss = nil
		s.BossDefeated = true
	}
	return true
}

// firstMonsterHit returns the lowest index of a live monster the bullet is
// inside of, or -1.
func (e *Engine) firstMonsterHit(monsters []object.Monster, b object.Bullet) int {
	best := -1
	e.grid.QueryAround(b.X, b.Y, func(i int) bool {
		if e.removed[i] || (best >= 0 && i > best) {
			return false
		}
		m := &monsters[i]
		if physics.PointInCircle(b.X, b.Y, m.X, m.Y, m.Width/2) {
			best = i
		}
		return false
	})
	return best
}

// indexMonsters rebuilds the broad-phase grid. Cells are at least as wide as
// the widest monster so every possible hit lies in the 3x3 neighborhood.
func (e *Engine) indexMonsters(monsters []object.Monster) {
	cell := MonsterBaseSize * BigMonsterScale
	for i := range monsters {
		if monsters[i].Width > cell {
			cell = monsters[i].Width
		}
	}
	e.grid.Reset(cell)
	for i := range monsters {
		e.grid.Insert(monsters[i].X, monsters[i].Y, i)
	}

	if cap(e.removed) < len(monsters) {
		e.removed = make([]bool, len(monsters))
	} else {
		e.removed = e.removed[:len(monsters)]
		clear(e.removed)
	}
}

// resolveContact handles bodies touching the player: at most one monster per
// tick, and the boss on every tick it overlaps.
func (e *Engine) resolveContact(s *object.GameState) {
	p := &s.Player
	for i, m := range s.Monsters {
		if physics.CirclesOverlap(p.X, p.Y, p.Width/2, m.X, m.Y, m.Width/2) {
			s.Monsters = slices.Delete(s.Monsters, i, i+1)
			loseLife(p)
			break
		}
	}

	if s.BossActive() {
		b := s.Boss
		if physics.CirclesOverlap(p.X, p.Y, p.Width/2, b.X, b.Y, b.Width/2) {
			loseLife(p)
		}
	}
}
