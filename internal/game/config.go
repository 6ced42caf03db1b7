package game

// Viewport in world units. The terminal canvas is scaled to show exactly this area.
const (
	ViewWidth  = 1280.0
	ViewHeight = 720.0
)

// Ambient spawning
const (
	AmbientSpawnChance    = 0.02
	SmallMonsterThreshold = 0.7 // roll above this spawns a small monster
	MonsterBaseSize       = 32.0
	SmallMonsterScale     = 1.2
	BigMonsterScale       = 2.0
	SmallMonsterPoints    = 30
	BigMonsterPoints      = 10
	MonsterDesigns        = 5 // designs rolled by the spawner
)

// Boss
const (
	BossScoreThreshold = 500
	BossSpawnDistance  = 400.0
	BossStandOff       = 200.0
	BossHeadingReroll  = 0.02
	BossMinionPeriod   = 180 // ticks
	BossMinionDistance = 50.0
	BossMinionPoints   = 20
	BossBulletDamage   = 5
	BossReward         = 1000
)
