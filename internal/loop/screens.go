package loop

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/tomz197/invaders/internal/draw"
	"github.com/tomz197/invaders/internal/render"
	"github.com/tomz197/invaders/internal/scoreboard"
)

// UI text colours
var (
	colorTitle   = draw.Hex(0xfffc58)
	colorDim     = draw.Hex(0x9a97c9)
	colorGood    = draw.Hex(0x4cd964)
	colorBad     = draw.Hex(0xff5c5c)
	colorDefault = draw.NoColor
)

// textSpan is a run of cells covered by overlay text in the last frame.
type textSpan struct {
	col, row, n int
}

// drawFrame renders the game and the overlay for the current screen.
func (s *Session) drawFrame() error {
	// Clear on screen transitions so the previous overlay disappears.
	if s.screen != s.prevScreen {
		draw.ClearScreen(s.cw)
		s.canvas.ForceRedraw()
		s.textSpans = s.textSpans[:0]
		s.prevScreen = s.screen
	}

	// Repaint cells under last frame's text, then draw this frame's text
	// on top.
	for _, t := range s.textSpans {
		s.canvas.MarkTextDirty(t.col, t.row, t.n)
	}
	s.textSpans = s.textSpans[:0]

	s.renderer.Draw(s.canvas, s.state, render.Frame{Now: s.now()})
	s.canvas.Render(s.cw)
	s.canvas.RenderBorder(s.cw)

	switch s.screen {
	case ScreenStart:
		s.drawStartScreen()
	case ScreenPlaying:
		s.drawPlayingHUD()
	case ScreenGameOver:
		s.drawGameOverScreen()
	}

	return s.cw.Flush()
}

// text writes str at a 1-based canvas position, clipped to the canvas.
// Control runes are dropped and widths are measured in terminal cells.
func (s *Session) text(col, row int, fg draw.Color, str string) {
	width := s.canvas.TerminalWidth()
	if row < 1 || row > s.canvas.TerminalHeight() || col > width {
		return
	}
	str = stripControls(str)
	if col < 1 {
		str = dropCells(str, 1-col)
		col = 1
	}
	str = takeCells(str, width-col+1)
	n := runewidth.StringWidth(str)
	if n == 0 {
		return
	}

	if fg.IsSet() {
		s.cw.WriteColoredAt(col, row, fg, str)
	} else {
		s.cw.WriteAt(col, row, str)
	}
	s.textSpans = append(s.textSpans, textSpan{col: col, row: row, n: n})
}

// centered writes str centered on the canvas.
func (s *Session) centered(row int, fg draw.Color, str string) {
	s.text(s.canvas.TerminalWidth()/2-runewidth.StringWidth(str)/2+1, row, fg, str)
}

// link writes an OSC 8 hyperlink labelled label, centered. Only plain
// http(s) URLs are linked.
func (s *Session) link(row int, url, label string) {
	url = stripControls(url)
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return
	}
	n := runewidth.StringWidth(label)
	width := s.canvas.TerminalWidth()
	if row < 1 || row > s.canvas.TerminalHeight() || n > width {
		return
	}
	col := width/2 - n/2 + 1
	s.cw.WriteAt(col, row, fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, label))
	s.textSpans = append(s.textSpans, textSpan{col: col, row: row, n: n})
}

func stripControls(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// takeCells returns the longest prefix of s that fits in n cells.
func takeCells(s string, n int) string {
	w := 0
	for pos, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > n {
			return s[:pos]
		}
		w += rw
	}
	return s
}

// dropCells removes the first n cells of s. A wide rune cut by the
// boundary is dropped whole.
func dropCells(s string, n int) string {
	w := 0
	for pos, r := range s {
		if w >= n {
			return s[pos:]
		}
		w += runewidth.RuneWidth(r)
	}
	return ""
}

// wrap splits text into lines of at most width cells at word boundaries.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	lineLen := 0
	for _, word := range strings.Fields(stripControls(text)) {
		wl := runewidth.StringWidth(word)
		if lineLen > 0 && lineLen+1+wl > width {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(word)
		lineLen += wl
	}
	if lineLen > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// Title art (figlet "small" font).
var titleArt = []string{
	" ___ _  ___   ___   ___  ___ ___  ___ ",
	"|_ _| \\| \\ \\ / /_\\ |   \\| __| _ \\/ __|",
	" | || .` |\\ V / _ \\| |) | _||   /\\__ \\",
	"|___|_|\\_| \\_/_/ \\_\\___/|___|_|_\\|___/",
}

func (s *Session) drawStartScreen() {
	height := s.canvas.TerminalHeight()
	row := max(height/2-10, 1)

	for i, line := range titleArt {
		s.centered(row+i, colorTitle, line)
	}
	row += len(titleArt) + 1
	s.centered(row, colorDim, "~ Space invaders over SSH ~")
	row += 2

	controls := []string{
		"WASD / Arrows  . . .  Move",
		"Click / SPACE  . . . Shoot",
		"P  . . . . . . . . . Pause",
		"L  . . . . . . Leaderboard",
		"Q  . . . . . . . . .  Quit",
	}
	for i, line := range controls {
		s.centered(row+i, colorDefault, line)
	}
	row += len(controls) + 1

	if s.now().UnixMilli()/600%2 == 0 {
		s.centered(row, colorTitle, ">>  Press SPACE or ENTER to Start  <<")
	}
	row += 2

	if s.opts.Player.IsZero() {
		s.centered(row, colorDim, "No wallet connected: log in as ssh <address>@host to save scores")
	} else {
		s.centered(row, colorDim, "Playing as "+s.opts.Player.Short())
	}
	row += 2

	s.drawLeaderboard(row, height)
}

func (s *Session) drawPlayingHUD() {
	width := s.canvas.TerminalWidth()
	height := s.canvas.TerminalHeight()
	st := s.state

	s.text(2, 1, colorDefault, fmt.Sprintf("Score: %-8d", st.Score))
	lives := fmt.Sprintf("Lives: %-3d", st.Player.Lives)
	s.text(width-len(lives), 1, colorDefault, lives)

	if st.BossActive() {
		s.centered(1, colorBad, fmt.Sprintf("BOSS %4d/%d", st.Boss.Health, st.Boss.MaxHealth))
	}

	s.text(2, height, colorDim, fmt.Sprintf("X:%-5.0f Y:%-5.0f", st.Player.X, st.Player.Y))

	if st.IsPaused {
		s.centered(height/2-1, colorTitle, "PAUSED")
		s.centered(height/2+1, colorDefault, "Press P to resume")
	}
}

func (s *Session) drawGameOverScreen() {
	height := s.canvas.TerminalHeight()
	st := s.state
	row := 2

	if st.BossDefeated {
		s.centered(row, colorGood, "*** BOSS DEFEATED! ***")
	} else {
		s.centered(row, colorBad, "GAME OVER")
	}
	row += 2
	s.centered(row, colorTitle, fmt.Sprintf("Final score: %d", st.Score))
	row += 2

	s.drawSubmitState(row)
	row += 2

	row = s.drawTaunt(row)
	row++

	s.drawLeaderboard(row, height-1)
	s.centered(height, colorDim, "[ENTER/R] Restart  [S] Save  [L] Leaderboard  [T] New taunt  [Q] Quit")
}

func (s *Session) drawSubmitState(row int) {
	sub := s.ui.Submit
	switch sub.Status {
	case SubmitIdle:
		label := "[S] Save score"
		if !s.opts.Player.IsZero() {
			label += " as " + s.opts.Player.Short()
		}
		s.centered(row, colorDefault, label)
	case SubmitSubmitting:
		s.centered(row, colorDim, "Saving score...  [C] Cancel")
	case SubmitSuccess:
		if sub.Improved {
			s.centered(row, colorGood, "Score saved!")
		} else {
			s.centered(row, colorGood, "Score saved. Your best score is still higher.")
		}
	case SubmitError:
		msg := sub.Message
		if sub.Retryable {
			msg += "  [S] Try Again"
		}
		s.centered(row, colorBad, msg)
	}
}

// drawTaunt draws the boss's tweet and returns the next free row.
func (s *Session) drawTaunt(row int) int {
	t := s.ui.Taunt
	switch {
	case t.Response != nil:
		s.centered(row, colorDim, "The boss says:")
		row++
		lines := wrap(t.Response.Tweet, min(panelWidth, s.canvas.TerminalWidth()-2))
		if len(lines) > maxTauntLines {
			lines = lines[:maxTauntLines]
		}
		for _, line := range lines {
			s.centered(row, colorDefault, line)
			row++
		}
		switch {
		case t.Response.Success && t.Response.TweetURL != "":
			s.link(row, t.Response.TweetURL, "Posted! Open tweet")
			row++
		case t.Response.ShareURL != "":
			s.link(row, t.Response.ShareURL, "Share this tweet")
			row++
		}
	case t.Loading:
		s.centered(row, colorDim, "The boss is thinking of something to say...")
		row++
	}
	return row
}

// drawLeaderboard draws the top list from row, stopping before maxRow.
func (s *Session) drawLeaderboard(row, maxRow int) {
	if row >= maxRow {
		return
	}
	lb := s.ui.Leaderboard
	s.centered(row, colorTitle, "LEADERBOARD")
	row++

	switch {
	case lb.Err != nil:
		msg := "Failed to load leaderboard data: " + lb.Err.Error()
		if errors.Is(lb.Err, scoreboard.ErrNotConfigured) {
			s.centered(row, colorDim, msg)
			return
		}
		s.centered(row, colorBad, msg)
		s.centered(row+1, colorDim, "[L] Try Again")
		return
	case !lb.Loaded:
		s.centered(row, colorDim, "Loading...")
		return
	case len(lb.Entries) == 0:
		s.centered(row, colorDim, "No scores yet!")
		return
	}

	for i, e := range lb.Entries {
		if row >= maxRow {
			return
		}
		fg := colorDefault
		if i == 0 {
			fg = colorTitle
		}
		marker := "  "
		if e.Player == s.opts.Player {
			marker = " <"
		}
		s.centered(row, fg, fmt.Sprintf("%3d. %-13s %10d%s", i+1, e.Player.Short(), e.Score, marker))
		row++
	}
}
