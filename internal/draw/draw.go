// Package draw renders a colour sub-pixel canvas to an ANSI terminal.
package draw

import "strconv"

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Color is a 24-bit RGB colour. The zero value means "not set" and renders
// as the terminal's default colour.
type Color uint32

// NoColor leaves a pixel at the terminal default.
const NoColor Color = 0

const colorSetBit = 1 << 24

// Hex builds a colour from a 0xRRGGBB literal.
func Hex(rgb uint32) Color {
	return Color(colorSetBit | rgb&0xFFFFFF)
}

// RGB builds a colour from its components.
func RGB(r, g, b uint8) Color {
	return Color(colorSetBit | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// IsSet reports whether c is a real colour rather than NoColor.
func (c Color) IsSet() bool {
	return c&colorSetBit != 0
}

// Components returns the red, green and blue channels.
func (c Color) Components() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Mix blends src over dst with the given opacity in [0, 1].
// Blending onto NoColor treats the destination as black.
func Mix(dst, src Color, alpha float64) Color {
	if alpha <= 0 {
		return dst
	}
	if alpha >= 1 {
		return src
	}
	dr, dg, db := dst.Components()
	sr, sg, sb := src.Components()
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*alpha + 0.5)
	}
	return RGB(lerp(dr, sr), lerp(dg, sg), lerp(db, sb))
}

// Common colours.
var (
	White  = Hex(0xFFFFFF)
	Black  = Hex(0x000000)
	Red    = Hex(0xFF0000)
	Yellow = Hex(0xFFFF00)
	Green  = Hex(0x00FF00)
)

// appendFG appends the SGR sequence selecting c as foreground colour.
func appendFG(buf []byte, c Color) []byte {
	if !c.IsSet() {
		return append(buf, "\033[39m"...)
	}
	return appendSGR(buf, "\033[38;2;", c)
}

// appendBG appends the SGR sequence selecting c as background colour.
func appendBG(buf []byte, c Color) []byte {
	if !c.IsSet() {
		return append(buf, "\033[49m"...)
	}
	return appendSGR(buf, "\033[48;2;", c)
}

func appendSGR(buf []byte, prefix string, c Color) []byte {
	r, g, b := c.Components()
	buf = append(buf, prefix...)
	buf = strconv.AppendUint(buf, uint64(r), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(g), 10)
	buf = append(buf, ';')
	buf = strconv.AppendUint(buf, uint64(b), 10)
	return append(buf, 'm')
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
