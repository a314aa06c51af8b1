package control

import "github.com/san-kum/rigidsim/internal/dynamo"

// Controller computes the model input for the state at time t.
type Controller[I any] interface {
	Compute(s *dynamo.SysState, t float64) I
}

// Constant returns the same input every step.
type Constant[I any] struct {
	Input I
}

func NewConstant[I any](in I) *Constant[I] {
	return &Constant[I]{Input: in}
}

func (c *Constant[I]) Compute(_ *dynamo.SysState, _ float64) I {
	return c.Input
}

// Tunable is a controller whose parameters can be changed while it runs.
type Tunable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64)
}
