package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Stability is the fraction of observed states whose entries all stay
// within threshold in magnitude.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x *dynamo.SysState, _ []float64, _ float64) {
	s.samples++
	if floats.Norm(x.Values(), math.Inf(1)) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
