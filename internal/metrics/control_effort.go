package metrics

import (
	"github.com/san-kum/rigidsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// ControlEffort is the mean L1 norm of the recorded inputs.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(_ *dynamo.SysState, u []float64, _ float64) {
	c.sum += floats.Norm(u, 1)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
