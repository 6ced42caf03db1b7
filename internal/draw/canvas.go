package draw

import (
	"io"
	"math"
	"strconv"
)

// Canvas is a colour drawing buffer with 2x vertical resolution using half-block characters.
// Drawing happens in logical coordinates which are scaled to terminal sub-pixels.
// Render only emits cells that changed since the previous frame.
type Canvas struct {
	termWidth      int     // Actual terminal columns
	termHeight     int     // Actual terminal rows
	subPixelHeight int     // termHeight * 2
	pixels         []Color // Flat slice: [y * termWidth + x]
	prev           []cell  // Cells as last written to the terminal
	forceRedraw    bool

	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// 0-based terminal offsets of the canvas when it is centered in a larger terminal.
	offsetCol int
	offsetRow int

	renderBuf []byte
}

// cell is the pair of sub-pixels shown by one terminal character.
type cell struct {
	top, bottom Color
	valid       bool
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
	}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
// A size change forces a full redraw.
func (c *Canvas) Resize(termWidth, termHeight int) {
	if termWidth < 1 {
		termWidth = 1
	}
	if termHeight < 1 {
		termHeight = 1
	}
	subPixelHeight := termHeight * 2

	if termWidth != c.termWidth || termHeight != c.termHeight || c.pixels == nil {
		c.pixels = make([]Color, subPixelHeight*termWidth)
		c.prev = make([]cell, termHeight*termWidth)
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = subPixelHeight
	}

	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(subPixelHeight) / c.logicalHeight
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int { return c.offsetCol }

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int { return c.offsetRow }

// ForceRedraw makes the next Render repaint every cell.
func (c *Canvas) ForceRedraw() {
	c.forceRedraw = true
}

// MarkTextDirty invalidates n cells starting at the 1-based canvas position
// (col, row), so text drawn over them is painted over on the next Render.
func (c *Canvas) MarkTextDirty(col, row, n int) {
	r := row - 1
	if r < 0 || r >= c.termHeight {
		return
	}
	for x := col - 1; x < col-1+n; x++ {
		if x >= 0 && x < c.termWidth {
			c.prev[r*c.termWidth+x].valid = false
		}
	}
}

// Clear fills every pixel with bg.
func (c *Canvas) Clear(bg Color) {
	for i := range c.pixels {
		c.pixels[i] = bg
	}
}

// Pixel returns the colour at sub-pixel (px, py), or NoColor when out of range.
func (c *Canvas) Pixel(px, py int) Color {
	if px < 0 || px >= c.termWidth || py < 0 || py >= c.subPixelHeight {
		return NoColor
	}
	return c.pixels[py*c.termWidth+px]
}

func (c *Canvas) setPixel(px, py int, col Color) {
	if px >= 0 && px < c.termWidth && py >= 0 && py < c.subPixelHeight {
		c.pixels[py*c.termWidth+px] = col
	}
}

func (c *Canvas) blendPixel(px, py int, col Color, alpha float64) {
	if px >= 0 && px < c.termWidth && py >= 0 && py < c.subPixelHeight {
		i := py*c.termWidth + px
		c.pixels[i] = Mix(c.pixels[i], col, alpha)
	}
}

// toPixel converts a logical coordinate to sub-pixel coordinates.
func (c *Canvas) toPixel(x, y float64) (int, int) {
	return int(math.Round(x * c.scaleX)), int(math.Round(y * c.scaleY))
}

// span converts a logical interval [start, start+length) to pixel bounds.
// Anything with positive length covers at least one pixel.
func span(start, length, scale float64) (int, int) {
	p0 := int(math.Round(start * scale))
	p1 := int(math.Round((start + length) * scale))
	if p1 <= p0 {
		p1 = p0 + 1
	}
	return p0, p1
}

// Set sets the pixel containing the logical point (x, y).
func (c *Canvas) Set(x, y float64, col Color) {
	px, py := c.toPixel(x, y)
	c.setPixel(px, py, col)
}

// FillRect fills the logical rectangle with top-left (x, y).
func (c *Canvas) FillRect(x, y, w, h float64, col Color) {
	c.BlendRect(x, y, w, h, col, 1)
}

// BlendRect blends col over the logical rectangle with the given opacity.
func (c *Canvas) BlendRect(x, y, w, h float64, col Color, alpha float64) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, x1 := span(x, w, c.scaleX)
	y0, y1 := span(y, h, c.scaleY)
	x0, x1 = max(x0, 0), min(x1, c.termWidth)
	y0, y1 = max(y0, 0), min(y1, c.subPixelHeight)
	for py := y0; py < y1; py++ {
		row := c.pixels[py*c.termWidth : (py+1)*c.termWidth]
		for px := x0; px < x1; px++ {
			row[px] = Mix(row[px], col, alpha)
		}
	}
}

// StrokeRect draws a one-pixel outline around the logical rectangle.
func (c *Canvas) StrokeRect(x, y, w, h float64, col Color) {
	x0, x1 := span(x, w, c.scaleX)
	y0, y1 := span(y, h, c.scaleY)
	c.drawPixelLine(x0, y0, x1-1, y0, col)
	c.drawPixelLine(x0, y1-1, x1-1, y1-1, col)
	c.drawPixelLine(x0, y0, x0, y1-1, col)
	c.drawPixelLine(x1-1, y0, x1-1, y1-1, col)
}

// DrawLine draws a line between two logical points.
func (c *Canvas) DrawLine(p1, p2 Point, col Color) {
	x1, y1 := c.toPixel(p1.X, p1.Y)
	x2, y2 := c.toPixel(p2.X, p2.Y)
	c.drawPixelLine(x1, y1, x2, y2, col)
}

// drawPixelLine draws a line in pixel space using Bresenham's algorithm.
func (c *Canvas) drawPixelLine(x1, y1, x2, y2 int, col Color) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		c.setPixel(x1, y1, col)

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// RadialGradient blends col around the logical center (cx, cy), fully at
// alpha in the middle and fading linearly to nothing at radius r.
// The center pixel is always touched so tiny gradients stay visible.
func (c *Canvas) RadialGradient(cx, cy, r float64, col Color, alpha float64) {
	if r <= 0 {
		return
	}
	x0, x1 := span(cx-r, 2*r, c.scaleX)
	y0, y1 := span(cy-r, 2*r, c.scaleY)
	for py := max(y0, 0); py < min(y1, c.subPixelHeight); py++ {
		ly := (float64(py) + 0.5) / c.scaleY
		for px := max(x0, 0); px < min(x1, c.termWidth); px++ {
			lx := (float64(px) + 0.5) / c.scaleX
			d := math.Hypot(lx-cx, ly-cy) / r
			if d < 1 {
				c.blendPixel(px, py, col, alpha*(1-d))
			}
		}
	}
	px, py := c.toPixel(cx, cy)
	if px >= x0 && px < x1 && py >= y0 && py < y1 {
		c.blendPixel(px, py, col, alpha)
	}
}

// Render writes changed cells to w as half-block characters coloured with
// 24-bit SGR sequences.
func (c *Canvas) Render(w io.Writer) {
	buf := c.renderBuf[:0]
	var fg, bg Color
	colorsValid := false
	lastCol, lastRow := -2, -2

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth

		for col := 0; col < c.termWidth; col++ {
			cur := cell{
				top:    c.pixels[topOffset+col],
				bottom: c.pixels[bottomOffset+col],
				valid:  true,
			}
			pi := row*c.termWidth + col
			if !c.forceRedraw && c.prev[pi] == cur {
				continue
			}
			c.prev[pi] = cur

			if row != lastRow || col != lastCol+1 {
				buf = append(buf, "\033["...)
				buf = strconv.AppendInt(buf, int64(row+1+c.offsetRow), 10)
				buf = append(buf, ';')
				buf = strconv.AppendInt(buf, int64(col+1+c.offsetCol), 10)
				buf = append(buf, 'H')
			}
			lastCol, lastRow = col, row

			if !colorsValid || fg != cur.top {
				buf = appendFG(buf, cur.top)
				fg = cur.top
			}
			if !colorsValid || bg != cur.bottom {
				buf = appendBG(buf, cur.bottom)
				bg = cur.bottom
			}
			colorsValid = true
			buf = append(buf, "▀"...)
		}
	}
	if colorsValid {
		buf = append(buf, "\033[0m"...)
	}
	c.forceRedraw = false
	c.renderBuf = buf

	for len(buf) > 0 {
		chunk := buf
		if len(chunk) > maxChunkSize {
			chunk = buf[:maxChunkSize]
		}
		_, _ = w.Write(chunk)
		buf = buf[len(chunk):]
	}
}

// LogicalWidth returns the logical width.
func (c *Canvas) LogicalWidth() float64 { return c.logicalWidth }

// LogicalHeight returns the logical height.
func (c *Canvas) LogicalHeight() float64 { return c.logicalHeight }

// TerminalWidth returns the canvas width in terminal columns.
func (c *Canvas) TerminalWidth() int { return c.termWidth }

// TerminalHeight returns the canvas height in terminal rows.
func (c *Canvas) TerminalHeight() int { return c.termHeight }

// LogicalToTerminal converts logical coordinates to a 1-based canvas position (col, row).
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px, py := c.toPixel(x, y)
	return px + 1, py/2 + 1
}

// TerminalToLogical converts a 1-based absolute terminal position, as reported
// by mouse events, to the logical point at the center of that cell.
// ok is false when the position lies outside the canvas.
func (c *Canvas) TerminalToLogical(col, row int) (x, y float64, ok bool) {
	px := col - 1 - c.offsetCol
	r := row - 1 - c.offsetRow
	if px < 0 || px >= c.termWidth || r < 0 || r >= c.termHeight {
		return 0, 0, false
	}
	return (float64(px) + 0.5) / c.scaleX, float64(r*2+1) / c.scaleY, true
}
