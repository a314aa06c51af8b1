package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells. Each cell holds 2x4 dots, so a
// Width x Height canvas has (Width*2) x (Height*4) addressable dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Set turns on the dot at (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport is the world rectangle shown on a canvas, with y pointing up.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
}

// FitViewport returns the bounding box of the points grown by margin on
// every side. Degenerate extents are widened to one unit.
func FitViewport(xs, ys []float64, margin float64) Viewport {
	if len(xs) == 0 || len(ys) == 0 {
		return Viewport{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1}
	}
	v := Viewport{
		MinX: floats.Min(xs) - margin,
		MaxX: floats.Max(xs) + margin,
		MinY: floats.Min(ys) - margin,
		MaxY: floats.Max(ys) + margin,
	}
	if v.MaxX-v.MinX < 1e-9 {
		v.MinX, v.MaxX = v.MinX-0.5, v.MaxX+0.5
	}
	if v.MaxY-v.MinY < 1e-9 {
		v.MinY, v.MaxY = v.MinY-0.5, v.MaxY+0.5
	}
	return v
}

// Project maps a world point to dots. Both axes share one scale so shapes
// keep their proportions; the viewport is centred on the canvas.
func (c *Canvas) Project(v Viewport, x, y float64) (int, int) {
	w, h := c.Dots()
	scale := math.Min(float64(w-1)/(v.MaxX-v.MinX), float64(h-1)/(v.MaxY-v.MinY))
	cx, cy := (v.MinX+v.MaxX)/2, (v.MinY+v.MaxY)/2
	px := float64(w-1)/2 + (x-cx)*scale
	py := float64(h-1)/2 - (y-cy)*scale
	return int(math.Round(px)), int(math.Round(py))
}

// Plot sets the dot nearest to the world point (x, y).
func (c *Canvas) Plot(v Viewport, x, y float64) {
	c.Set(c.Project(v, x, y))
}

// Line draws a world-space segment.
func (c *Canvas) Line(v Viewport, x0, y0, x1, y1 float64) {
	ax, ay := c.Project(v, x0, y0)
	bx, by := c.Project(v, x1, y1)
	c.DrawLine(ax, ay, bx, by)
}

// Path joins consecutive points with lines.
func (c *Canvas) Path(v Viewport, xs, ys []float64) {
	n := min(len(xs), len(ys))
	if n == 1 {
		c.Plot(v, xs[0], ys[0])
	}
	for i := 1; i < n; i++ {
		c.Line(v, xs[i-1], ys[i-1], xs[i], ys[i])
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
