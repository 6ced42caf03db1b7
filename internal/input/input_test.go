package input

import (
	"bufio"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomz197/invaders/internal/object"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStream() (*Stream, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	s := newStream()
	s.now = clk.now
	return s, clk
}

func feed(s *Stream, data string) {
	for i := 0; i < len(data); i++ {
		s.ch <- data[i]
	}
}

func TestReadInput_ArrowsAndWASD(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "\x1b[A\x1b[Dsd")

	in := ReadInput(s)

	assert.True(t, in.Keys[object.KeyUp])
	assert.True(t, in.Keys[object.KeyLeft])
	assert.True(t, in.Keys[object.KeyS])
	assert.True(t, in.Keys[object.KeyD])
	assert.False(t, in.Keys[object.KeyDown])
	assert.False(t, in.Quit)
}

func TestReadInput_KeysHeldWithinWindow(t *testing.T) {
	s, clk := newTestStream()
	feed(s, "w")
	require.True(t, ReadInput(s).Keys[object.KeyW])

	clk.t = clk.t.Add(keyHoldDuration / 2)
	assert.True(t, ReadInput(s).Keys[object.KeyW], "still held between repeats")

	clk.t = clk.t.Add(keyHoldDuration)
	assert.False(t, ReadInput(s).Keys[object.KeyW], "released after the window")
}

func TestReadInput_ResetKeyInput(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "a")
	require.True(t, ReadInput(s).Keys[object.KeyA])

	ResetKeyInput(s)

	assert.Empty(t, ReadInput(s).Keys)
}

func TestReadInput_Commands(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "p r\r  L")

	in := ReadInput(s)

	assert.True(t, in.Pause)
	assert.True(t, in.Restart)
	assert.True(t, in.Enter)
	assert.Equal(t, 3, in.Shots)
	assert.True(t, in.Has('l'), "letters are reported lower-case")
	assert.False(t, in.Has('t'))
	assert.False(t, in.Quit)
}

func TestReadInput_Quit(t *testing.T) {
	for name, data := range map[string]string{
		"q":      "q",
		"ctrl-c": "\x03",
		"esc+q":  "\x1bq",
	} {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStream()
			feed(s, data)
			assert.True(t, ReadInput(s).Quit)
		})
	}
}

func TestReadInput_LoneEscQuitsOnNextRead(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "\x1b")

	assert.False(t, ReadInput(s).Quit, "may be the start of a sequence")
	assert.True(t, ReadInput(s).Quit)
	assert.False(t, ReadInput(s).Quit, "the Esc is consumed")
}

func TestReadInput_LoneEscBeforeEOF(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "\x1b")
	close(s.ch)

	in := ReadInput(s)
	assert.True(t, in.Quit)
	assert.True(t, in.Closed)
}

func TestReadInput_MouseClicks(t *testing.T) {
	s, _ := newTestStream()
	// left press, left release, right press, wheel, left press with motion
	feed(s, "\x1b[<0;10;5M\x1b[<0;10;5m\x1b[<2;1;1M\x1b[<64;3;3M\x1b[<32;7;7M\x1b[<0;120;40M")

	in := ReadInput(s)

	assert.Equal(t, []Click{{Col: 10, Row: 5}, {Col: 120, Row: 40}}, in.Clicks)
	assert.False(t, in.Quit, "mouse reports are not a lone Esc")
}

func TestReadInput_SplitSequence(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "\x1b[<0;12")
	in := ReadInput(s)
	assert.Empty(t, in.Clicks)
	assert.False(t, in.Quit)

	feed(s, ";9M")
	in = ReadInput(s)
	assert.Equal(t, []Click{{Col: 12, Row: 9}}, in.Clicks)
}

func TestReadInput_SplitArrow(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "\x1b")
	in := ReadInput(s)
	assert.False(t, in.Quit)
	assert.Empty(t, in.Keys)

	feed(s, "[A")
	in = ReadInput(s)
	assert.False(t, in.Quit)
	assert.True(t, in.Keys[object.KeyUp])
	assert.False(t, in.Keys[object.KeyA])
	assert.Empty(t, in.Pressed)
}

func TestReadInput_UnknownSequenceSkipped(t *testing.T) {
	s, _ := newTestStream()
	feed(s, "\x1b[15~p")

	in := ReadInput(s)

	assert.True(t, in.Pause)
	assert.False(t, in.Quit)
	assert.Equal(t, []byte("p"), in.Pressed)
}

func TestStartStream_ClosesOnEOF(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("p")))

	var sawPause bool
	require.Eventually(t, func() bool {
		in := ReadInput(s)
		sawPause = sawPause || in.Pause
		return in.Closed
	}, time.Second, time.Millisecond)
	assert.True(t, sawPause)
}
