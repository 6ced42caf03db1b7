package draw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 10x5 terminal cells = 10x10 sub-pixels over a 100x100 logical area.
func newTestCanvas() *Canvas {
	return NewScaledCanvas(10, 5, 100, 100)
}

func TestColor(t *testing.T) {
	c := Hex(0x12ABEF)
	r, g, b := c.Components()
	assert.True(t, c.IsSet())
	assert.Equal(t, []uint8{0x12, 0xAB, 0xEF}, []uint8{r, g, b})
	assert.Equal(t, c, RGB(0x12, 0xAB, 0xEF))
	assert.False(t, NoColor.IsSet())
	assert.True(t, Black.IsSet())
}

func TestMix(t *testing.T) {
	assert.Equal(t, Black, Mix(Black, White, 0))
	assert.Equal(t, White, Mix(Black, White, 1))
	assert.Equal(t, RGB(128, 128, 128), Mix(Black, White, 0.5))
}

func TestCanvas_SetScales(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)

	c.Set(52, 31, Red)

	assert.Equal(t, Red, c.Pixel(5, 3))
	assert.Equal(t, Black, c.Pixel(4, 3))
	assert.Equal(t, NoColor, c.Pixel(-1, 0))
}

func TestCanvas_FillRect(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)

	c.FillRect(20, 20, 30, 20, Green)

	for py := 0; py < 10; py++ {
		for px := 0; px < 10; px++ {
			want := Black
			if px >= 2 && px < 5 && py >= 2 && py < 4 {
				want = Green
			}
			assert.Equal(t, want, c.Pixel(px, py), "pixel %d,%d", px, py)
		}
	}
}

func TestCanvas_FillRectCoversAtLeastOnePixel(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)

	c.FillRect(40, 40, 2, 2, White)

	assert.Equal(t, White, c.Pixel(4, 4))
}

func TestCanvas_FillRectClipsToCanvas(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)

	assert.NotPanics(t, func() {
		c.FillRect(-50, -50, 500, 500, White)
	})
	assert.Equal(t, White, c.Pixel(0, 0))
	assert.Equal(t, White, c.Pixel(9, 9))
}

func TestCanvas_DrawLine(t *testing.T) {
	c := newTestCanvas()
	c.DrawLine(Point{X: 5, Y: 5}, Point{X: 95, Y: 95}, Red)

	for i := range 10 {
		assert.Equal(t, Red, c.Pixel(i, i), "pixel %d", i)
	}
	assert.Equal(t, NoColor, c.Pixel(9, 0))
}

func TestCanvas_StrokeRect(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)

	c.StrokeRect(20, 20, 40, 40, White)

	assert.Equal(t, White, c.Pixel(2, 2))
	assert.Equal(t, White, c.Pixel(5, 2))
	assert.Equal(t, White, c.Pixel(2, 5))
	assert.Equal(t, Black, c.Pixel(3, 3), "outline only")
}

func TestCanvas_RadialGradientFades(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)

	c.RadialGradient(55, 55, 30, White, 1)

	center := c.Pixel(5, 5)
	edge := c.Pixel(7, 5)
	cr, _, _ := center.Components()
	er, _, _ := edge.Components()
	assert.Greater(t, cr, er)
	assert.Equal(t, Black, c.Pixel(0, 0))
}

func TestCanvas_RenderEmitsHalfBlocks(t *testing.T) {
	c := NewScaledCanvas(2, 1, 2, 2)
	c.Clear(Black)
	c.Set(0, 0, Red)

	var out bytes.Buffer
	c.Render(&out)

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "\033[1;1H"))
	assert.Contains(t, s, "\033[38;2;255;0;0m\033[48;2;0;0;0m▀")
	assert.Equal(t, 2, strings.Count(s, "▀"))
	assert.True(t, strings.HasSuffix(s, ColorReset))
}

func TestCanvas_RenderOnlyChangedCells(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)
	var out bytes.Buffer
	c.Render(&out)
	require.Equal(t, 50, strings.Count(out.String(), "▀"))

	out.Reset()
	c.Clear(Black)
	c.Render(&out)
	assert.Empty(t, out.String())

	c.Set(92, 92, White)
	c.Render(&out)
	assert.Equal(t, 1, strings.Count(out.String(), "▀"))
	assert.Contains(t, out.String(), "\033[5;10H")
}

func TestCanvas_ForceRedrawAndDirtyText(t *testing.T) {
	c := newTestCanvas()
	c.Clear(Black)
	var out bytes.Buffer
	c.Render(&out)

	out.Reset()
	c.MarkTextDirty(3, 2, 4)
	c.Render(&out)
	assert.Equal(t, 4, strings.Count(out.String(), "▀"))

	out.Reset()
	c.ForceRedraw()
	c.Render(&out)
	assert.Equal(t, 50, strings.Count(out.String(), "▀"))
}

func TestCanvas_RenderAppliesOffset(t *testing.T) {
	c := NewScaledCanvas(1, 1, 1, 2)
	c.SetOffset(4, 2)
	c.Clear(Black)

	var out bytes.Buffer
	c.Render(&out)

	assert.True(t, strings.HasPrefix(out.String(), "\033[3;5H"))
}

func TestCanvas_TerminalToLogical(t *testing.T) {
	c := newTestCanvas()
	c.SetOffset(3, 1)

	x, y, ok := c.TerminalToLogical(4, 2)
	require.True(t, ok)
	assert.InDelta(t, 5, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	col, row := c.LogicalToTerminal(55, 35)
	assert.Equal(t, 7, col)
	assert.Equal(t, 3, row)

	_, _, ok = c.TerminalToLogical(3, 2)
	assert.False(t, ok)
	_, _, ok = c.TerminalToLogical(14, 2)
	assert.False(t, ok)
}

func TestCanvas_Resize(t *testing.T) {
	c := newTestCanvas()
	c.Resize(20, 10)

	assert.Equal(t, 20, c.TerminalWidth())
	assert.Equal(t, 10, c.TerminalHeight())
	c.Clear(Black)
	c.Set(97, 97, White)
	assert.Equal(t, White, c.Pixel(19, 19))
}

func TestChunkWriter(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 2, 1)

	cw.WriteAt(1, 1, "hi")
	cw.WriteColoredAt(3, 4, Red, "x")
	require.NoError(t, cw.Flush())

	assert.Equal(t, "\033[2;3Hhi\033[5;5H\033[38;2;255;0;0mx\033[0m", out.String())
	assert.Equal(t, 0, cw.Len())
}

func TestChunkWriter_LargeFlush(t *testing.T) {
	var out bytes.Buffer
	cw := NewChunkWriter(&out, 0, 0)
	big := strings.Repeat("a", 10*maxChunkSize+7)

	cw.WriteString(big)
	require.NoError(t, cw.Flush())

	assert.Equal(t, big, out.String())
}
