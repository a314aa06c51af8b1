package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG converts a Braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	dotRadius := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrajectoryToSVG writes the path traced by two state columns of r as an
// SVG polyline, with a marker at the start and at the end.
func TrajectoryToSVG(w io.Writer, r *sim.Result, xName, yName string, width, height int, stroke string) error {
	xs, err := r.Column(xName)
	if err != nil {
		return err
	}
	ys, err := r.Column(yName)
	if err != nil {
		return err
	}
	if len(xs) < 2 {
		return fmt.Errorf("need at least two samples, got %d", len(xs))
	}

	view := viz.FitViewport(xs, ys, 0)
	padX, padY := 0.1*(view.MaxX-view.MinX), 0.1*(view.MaxY-view.MinY)
	view.MinX, view.MaxX = view.MinX-padX, view.MaxX+padX
	view.MinY, view.MaxY = view.MinY-padY, view.MaxY+padY
	rangeX, rangeY := view.MaxX-view.MinX, view.MaxY-view.MinY

	project := func(i int) (float64, float64) {
		return (xs[i] - view.MinX) / rangeX * float64(width),
			float64(height) - (ys[i]-view.MinY)/rangeY*float64(height)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, background, stroke)

	for i := range xs {
		x, y := project(i)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, x, y)
	}
	sb.WriteString("\"/>\n")

	sx, sy := project(0)
	ex, ey := project(len(xs) - 1)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"#00ff00\"/>\n", sx, sy)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"#ff0000\"/>\n", ex, ey)
	sb.WriteString("</svg>\n")

	_, err = io.WriteString(w, sb.String())
	return err
}
