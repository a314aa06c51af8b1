package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/sim"
)

const maxPlots = 6

// PlotColumns renders one chart per named state column. With no names the
// first few state variables are plotted.
func PlotColumns(r *sim.Result, names []string, w, h int) (string, error) {
	if len(r.States) == 0 {
		return "", fmt.Errorf("no data to plot")
	}
	if len(names) == 0 {
		names = r.Names[:min(len(r.Names), maxPlots)]
	}

	var b strings.Builder
	for _, name := range names {
		data, err := r.Column(name)
		if err != nil {
			return "", err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(h),
			asciigraph.Width(w),
			asciigraph.Caption(name+" vs time"),
		)
		b.WriteString(graph + "\n\n")
	}
	return b.String(), nil
}

// PlotTrajectory draws the path traced by two state columns on a braille
// canvas of w x h cells.
func PlotTrajectory(r *sim.Result, xName, yName string, w, h int) (string, error) {
	xs, err := r.Column(xName)
	if err != nil {
		return "", err
	}
	ys, err := r.Column(yName)
	if err != nil {
		return "", err
	}
	if len(xs) == 0 {
		return "", fmt.Errorf("no data to plot")
	}

	c := NewCanvas(w, h)
	view := FitViewport(xs, ys, 0)
	c.Path(view, xs, ys)
	caption := fmt.Sprintf("%s vs %s  x:[%.3g, %.3g] y:[%.3g, %.3g]",
		yName, xName, view.MinX, view.MaxX, view.MinY, view.MaxY)
	return c.String() + caption + "\n", nil
}
