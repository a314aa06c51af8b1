package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	svg := CanvasToSVG(c, 10)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if !strings.Contains(svg, `width="40" height="40"`) {
		t.Errorf("unexpected size in:\n%s", svg)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("expected empty output for nil canvas")
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	r := &sim.Result{
		Names:  []string{"X", "Y", "Theta"},
		States: [][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	}

	var buf bytes.Buffer
	if err := TrajectoryToSVG(&buf, r, "X", "Y", 200, 100, "#ff00ff"); err != nil {
		t.Fatal(err)
	}
	svg := buf.String()
	if !strings.Contains(svg, `stroke="#ff00ff"`) {
		t.Error("expected stroke color")
	}
	if strings.Count(svg, "L") != 2 || strings.Count(svg, "M") != 1 {
		t.Errorf("expected one move and two lines, got:\n%s", svg)
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("expected closed svg")
	}
}

func TestTrajectoryToSVGErrors(t *testing.T) {
	r := &sim.Result{Names: []string{"X", "Y"}, States: [][]float64{{0, 0}}}
	var buf bytes.Buffer
	if err := TrajectoryToSVG(&buf, r, "X", "Y", 10, 10, "red"); err == nil {
		t.Error("expected error for a single sample")
	}
	if err := TrajectoryToSVG(&buf, r, "X", "Z", 10, 10, "red"); !errors.Is(err, dynamo.ErrInvalidName) {
		t.Errorf("expected invalid name, got %v", err)
	}
}
