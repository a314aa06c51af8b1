package control

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// MotorSchedule drives all four motors with the same speed profile: a short
// ramp up from 625 rad/s, a slow down, a recovery and then a constant 625.
type MotorSchedule struct{}

func (MotorSchedule) Speed(t float64) float64 {
	switch {
	case t <= 0.1:
		return 500*t + 625.0
	case t <= 0.4:
		return -416.66*t + 716.66
	case t <= 0.5:
		return 750.0*t + 250.0
	default:
		return 625.0
	}
}

func (m MotorSchedule) Compute(_ *dynamo.SysState, t float64) physics.MotorSpeeds {
	w := m.Speed(t)
	return physics.MotorSpeeds{w, w, w, w}
}

// AltitudeHold runs a PID on altitude (-z, since z points down) and turns
// the commanded vertical acceleration into equal motor speeds.
type AltitudeHold struct {
	*PID
	cfg physics.QuadrotorConfig
}

func NewAltitudeHold(cfg physics.QuadrotorConfig, kp, ki, kd, target float64) *AltitudeHold {
	return &AltitudeHold{PID: NewPID(kp, ki, kd, target), cfg: cfg}
}

func (a *AltitudeHold) Compute(s *dynamo.SysState, t float64) physics.MotorSpeeds {
	z, err := s.Get("z")
	if err != nil {
		return physics.MotorSpeeds{}
	}
	accel := a.Update(-z, t)

	thrust := a.cfg.Mass * (physics.Gravity + accel)
	if thrust <= 0 || a.cfg.K1 <= 0 {
		return physics.MotorSpeeds{}
	}
	w := math.Sqrt(thrust / (4 * a.cfg.K1))
	return physics.MotorSpeeds{w, w, w, w}
}
