package control

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// WheelSpeeds produces the V3 wheel speeds that realise a linear velocity V
// and angular velocity W on wheels of radius R and half axle length L.
type WheelSpeeds struct {
	V, W float64
	R, L float64
}

func NewWheelSpeeds(v, w, r, l float64) *WheelSpeeds {
	return &WheelSpeeds{V: v, W: w, R: r, L: l}
}

func (c *WheelSpeeds) Compute(_ *dynamo.SysState, _ float64) physics.DiffDriveInput {
	return physics.V3Input{
		W1: (c.V + c.W*c.L) / c.R,
		W2: (c.V - c.W*c.L) / c.R,
		R:  c.R,
		L:  c.L,
	}
}

// HeadingHold drives at constant speed and steers with w = -K (theta - target).
// Only V1 and V2 models accept its input.
type HeadingHold struct {
	Version physics.DynamicVersion
	V       float64
	K       float64
	Target  float64
}

func NewHeadingHold(version physics.DynamicVersion, v, k, target float64) *HeadingHold {
	return &HeadingHold{Version: version, V: v, K: k, Target: target}
}

func (h *HeadingHold) Compute(s *dynamo.SysState, _ float64) physics.DiffDriveInput {
	theta := s.At(2)
	diff := math.Remainder(theta-h.Target, 2*math.Pi)
	w := -h.K * diff

	if h.Version == physics.V2 {
		return physics.V2Input{V: h.V, W: w}
	}
	return physics.V1Input{V: h.V, W: w}
}

func (h *HeadingHold) GetParams() map[string]float64 {
	return map[string]float64{"V": h.V, "K": h.K, "Target": h.Target}
}

func (h *HeadingHold) SetParam(name string, value float64) {
	switch name {
	case "V":
		h.V = value
	case "K":
		h.K = value
	case "Target":
		h.Target = value
	}
}
