package loop

import "time"

// Frame timing
const (
	targetFPS       = 60
	targetFrameTime = time.Second / targetFPS
)

// Largest area the canvas is drawn at. Bigger terminals get a border.
const (
	maxTermWidth  = 256
	maxTermHeight = 72
)

// A terminal row holds two sub-pixels, so a 16:9 viewport needs 9/32 rows
// per column.
const (
	aspectCols = 32
	aspectRows = 9
)

// Async task bounds. The taunt bound covers the language model call plus
// the poster health check and post.
const (
	leaderboardTimeout = 20 * time.Second
	submitTimeout      = 30 * time.Second
	tauntTimeout       = 75 * time.Second
)

// resultBuffer is the capacity of the async result channel.
const resultBuffer = 8

// Text layout
const (
	panelWidth    = 64
	maxTauntLines = 5
)
