// Package input turns raw terminal bytes into per-frame key state, mouse
// clicks and one-shot commands.
package input

import (
	"bufio"
	"strconv"
	"time"

	"github.com/tomz197/invaders/internal/object"
)

// keyHoldDuration is how long a movement key counts as held after its last
// press. Terminals send no key-up events, only auto-repeat, so the window
// has to bridge the gap between repeats.
const keyHoldDuration = 150 * time.Millisecond

// Click is a left mouse press at a 1-based terminal cell.
type Click struct {
	Col, Row int
}

// Input represents the current frame's input state.
type Input struct {
	// Keys holds the movement keys currently considered held.
	Keys object.Keys

	// Clicks are left-button presses since the previous frame, oldest first.
	Clicks []Click
	// Shots counts space presses since the previous frame.
	Shots int

	Quit    bool // q, Ctrl-C or a lone Esc
	Pause   bool // p
	Enter   bool // Enter or Return
	Restart bool // r

	// Pressed lists the printable keys pressed since the previous frame, so
	// screens can bind letters that double as movement keys.
	Pressed []byte

	// Closed is set once the underlying reader has failed or hit EOF.
	Closed bool
}

// Has reports whether key b was pressed this frame.
func (in Input) Has(b byte) bool {
	for _, p := range in.Pressed {
		if p == b {
			return true
		}
	}
	return false
}

// Stream delivers input bytes via a channel and tracks when each movement
// key was last seen.
type Stream struct {
	ch      chan byte
	pending []byte
	held    map[object.Key]time.Time
	closed  bool
	now     func() time.Time
}

func newStream() *Stream {
	return &Stream{
		ch:   make(chan byte, 256),
		held: make(map[object.Key]time.Time),
		now:  time.Now,
	}
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
// The goroutine exits when r returns an error.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ResetKeyInput forgets all held keys, e.g. when switching screens.
func ResetKeyInput(s *Stream) {
	clear(s.held)
}

// ReadInput drains all available bytes from the stream without blocking and
// parses them. Escape sequences split across reads are kept for the next call.
func ReadInput(s *Stream) Input {
	now := s.now()
	buf := s.pending
	carried := len(buf)
	s.pending = nil

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := Input{Closed: s.closed}
	// An Esc is only the Esc key once a whole read passes with nothing
	// after it; otherwise it may be the first byte of a split sequence.
	if len(buf) == 1 && buf[0] == '\x1b' && (carried == 1 || s.closed) {
		in.Quit = true
		buf = buf[:0]
	}
	for i := 0; i < len(buf); {
		n, complete := s.parse(&in, buf[i:], now)
		if !complete {
			s.pending = append(s.pending, buf[i:]...)
			break
		}
		i += n
	}

	in.Keys = make(object.Keys, len(s.held))
	for k, t := range s.held {
		if now.Sub(t) < keyHoldDuration {
			in.Keys[k] = true
		}
	}
	return in
}

// parse consumes one key or sequence from the front of buf. It returns the
// number of bytes used, or complete=false when buf ends mid-sequence.
func (s *Stream) parse(in *Input, buf []byte, now time.Time) (n int, complete bool) {
	b := buf[0]
	if b != '\x1b' {
		s.applyByte(in, b, now)
		return 1, true
	}

	if len(buf) == 1 {
		return 0, false
	}
	if buf[1] != '[' && buf[1] != 'O' {
		in.Quit = true
		return 1, true
	}
	if len(buf) < 3 {
		return 0, false
	}

	switch buf[2] {
	case 'A':
		s.held[object.KeyUp] = now
		return 3, true
	case 'B':
		s.held[object.KeyDown] = now
		return 3, true
	case 'C':
		s.held[object.KeyRight] = now
		return 3, true
	case 'D':
		s.held[object.KeyLeft] = now
		return 3, true
	case '<':
		return parseMouse(in, buf)
	}

	// Unknown CSI: skip through its final byte.
	for j := 2; j < len(buf); j++ {
		if buf[j] >= 0x40 && buf[j] <= 0x7e {
			return j + 1, true
		}
	}
	return 0, false
}

// parseMouse decodes an SGR mouse report: ESC [ < b ; x ; y (M|m).
func parseMouse(in *Input, buf []byte) (int, bool) {
	var fields [3]int
	field, start := 0, 3
	for j := 3; j < len(buf); j++ {
		c := buf[j]
		switch {
		case c >= '0' && c <= '9':
			continue
		case c == ';' && field < 2:
			fields[field], _ = strconv.Atoi(string(buf[start:j]))
			field++
			start = j + 1
		case (c == 'M' || c == 'm') && field == 2:
			fields[2], _ = strconv.Atoi(string(buf[start:j]))
			button := fields[0]
			// Press of the left button without motion or wheel bits.
			if c == 'M' && button&3 == 0 && button&(32|64) == 0 {
				in.Clicks = append(in.Clicks, Click{Col: fields[1], Row: fields[2]})
			}
			return j + 1, true
		default:
			// Malformed; drop what we have seen.
			return j + 1, true
		}
	}
	return 0, false
}

// applyByte handles a single non-escape byte.
func (s *Stream) applyByte(in *Input, b byte, now time.Time) {
	switch b {
	case 'w', 'W':
		s.held[object.KeyW] = now
	case 'a', 'A':
		s.held[object.KeyA] = now
	case 's', 'S':
		s.held[object.KeyS] = now
	case 'd', 'D':
		s.held[object.KeyD] = now
	case ' ':
		in.Shots++
	case '\r', '\n':
		in.Enter = true
	case 'q', 'Q', '\x03':
		in.Quit = true
	case 'p', 'P':
		in.Pause = true
	case 'r', 'R':
		in.Restart = true
	}
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	if b > ' ' && b < 0x7f {
		in.Pressed = append(in.Pressed, b)
	}
}
