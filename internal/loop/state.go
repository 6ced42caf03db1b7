package loop

import (
	"github.com/tomz197/invaders/internal/scoreboard"
	"github.com/tomz197/invaders/internal/taunt"
)

// Screen is the session's current phase.
type Screen int

const (
	ScreenStart    Screen = iota // Title, controls and leaderboard
	ScreenPlaying                // Active gameplay, possibly paused
	ScreenGameOver               // Final score, save and taunt panel
)

// SubmitStatus is the score submission state machine:
// Idle -> Submitting -> Success | Error. Retryable errors go back to
// Submitting on the next save request.
type SubmitStatus int

const (
	SubmitIdle SubmitStatus = iota
	SubmitSubmitting
	SubmitSuccess
	SubmitError
)

// SubmitState is what the game-over panel shows about the save.
type SubmitState struct {
	Status    SubmitStatus
	Message   string
	Retryable bool
	Improved  bool
}

// User-facing submission messages.
const (
	msgNoWallet      = "Please connect your wallet to save your score"
	msgNotConfigured = "Cannot connect to contract"
	msgSubmitFailed  = "Could not save score to contract. Please try again."
	msgTimedOut      = "Saving timed out. Please try again."
)

// LeaderboardState holds the last fetched top list.
type LeaderboardState struct {
	Loading bool
	Loaded  bool
	Entries []scoreboard.Entry
	Err     error
}

// TauntState holds the boss's tweet for the current game.
type TauntState struct {
	Loading  bool
	Response *taunt.Response
}

// UIState is everything the screens show besides the game itself. Async
// results only ever touch this, never the GameState.
type UIState struct {
	Submit      SubmitState
	Leaderboard LeaderboardState
	Taunt       TauntState
}

type resultKind int

const (
	resultLeaderboard resultKind = iota
	resultSubmit
	resultTaunt
)

// taskResult is posted by an async task to the session's result channel.
// gen ties game-specific results to the game that started them.
type taskResult struct {
	kind resultKind
	gen  uint64

	entries  []scoreboard.Entry
	improved bool
	taunt    taunt.Response
	err      error
}
