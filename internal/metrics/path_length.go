package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// PathLength accumulates the planar distance travelled by the two named
// position entries of the state.
type PathLength struct {
	name   string
	xName  string
	yName  string
	prevX  float64
	prevY  float64
	length float64
	seen   bool
}

// NewPathLength tracks the "X" and "Y" entries of a DiffDrive pose.
func NewPathLength() *PathLength {
	return NewPathLengthOf("X", "Y")
}

func NewPathLengthOf(xName, yName string) *PathLength {
	return &PathLength{name: "path_length", xName: xName, yName: yName}
}

func (p *PathLength) Name() string { return p.name }

func (p *PathLength) Observe(s *dynamo.SysState, _ []float64, _ float64) {
	x, errX := s.Get(p.xName)
	y, errY := s.Get(p.yName)
	if errX != nil || errY != nil {
		return
	}
	if p.seen {
		p.length += math.Hypot(x-p.prevX, y-p.prevY)
	}
	p.prevX, p.prevY = x, y
	p.seen = true
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() {
	p.length = 0
	p.seen = false
}
