package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
)

type (
	diffDriveController = control.Controller[physics.DiffDriveInput]
	quadrotorController = control.Controller[physics.MotorSpeeds]
)

// Registry maps controller names to constructors for each model.
type Registry struct {
	diffDrive map[string]func(*config.Config, physics.DynamicVersion) (diffDriveController, error)
	quadrotor map[string]func(*config.Config) quadrotorController
}

func NewRegistry() *Registry {
	r := &Registry{
		diffDrive: make(map[string]func(*config.Config, physics.DynamicVersion) (diffDriveController, error)),
		quadrotor: make(map[string]func(*config.Config) quadrotorController),
	}

	r.diffDrive["constant"] = func(c *config.Config, v physics.DynamicVersion) (diffDriveController, error) {
		p := c.ControllerParams
		switch v {
		case physics.V1:
			return control.NewConstant[physics.DiffDriveInput](physics.V1Input{V: p.V, W: p.W}), nil
		case physics.V2:
			return control.NewConstant[physics.DiffDriveInput](physics.V2Input{V: p.V, W: p.W}), nil
		}
		return wheels(c)
	}
	r.diffDrive["wheels"] = func(c *config.Config, v physics.DynamicVersion) (diffDriveController, error) {
		if v != physics.V3 {
			return nil, fmt.Errorf("controller wheels needs V3 dynamics, got %s", v)
		}
		return wheels(c)
	}
	r.diffDrive["heading"] = func(c *config.Config, v physics.DynamicVersion) (diffDriveController, error) {
		if v == physics.V3 {
			return nil, fmt.Errorf("controller heading needs V1 or V2 dynamics")
		}
		p := c.ControllerParams
		return control.NewHeadingHold(v, p.V, p.Kp, p.Target), nil
	}

	r.quadrotor["none"] = func(*config.Config) quadrotorController {
		return control.NewConstant(physics.MotorSpeeds{})
	}
	r.quadrotor["hover"] = func(c *config.Config) quadrotorController {
		w := c.Quadrotor.HoverSpeed()
		return control.NewConstant(physics.MotorSpeeds{w, w, w, w})
	}
	r.quadrotor["schedule"] = func(*config.Config) quadrotorController {
		return control.MotorSchedule{}
	}
	r.quadrotor["altitude"] = func(c *config.Config) quadrotorController {
		p := c.ControllerParams
		return control.NewAltitudeHold(c.Quadrotor, p.Kp, p.Ki, p.Kd, p.Target)
	}

	return r
}

func wheels(c *config.Config) (diffDriveController, error) {
	p := c.ControllerParams
	return control.NewWheelSpeeds(p.V, p.W, c.DiffDrive.WheelRadius, c.DiffDrive.HalfAxle), nil
}

func (r *Registry) ListModels() []string {
	return []string{config.ModelDiffDrive, config.ModelQuadrotor}
}

// ListControllers returns the controller names available for model.
func (r *Registry) ListControllers(model string) []string {
	var names []string
	switch model {
	case config.ModelDiffDrive:
		for name := range r.diffDrive {
			names = append(names, name)
		}
	case config.ModelQuadrotor:
		for name := range r.quadrotor {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (r *Registry) diffDriveController(cfg *config.Config, v physics.DynamicVersion) (diffDriveController, error) {
	fn, ok := r.diffDrive[cfg.Controller]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", cfg.Controller)
	}
	return fn(cfg, v)
}

func (r *Registry) quadrotorController(cfg *config.Config) (quadrotorController, error) {
	fn, ok := r.quadrotor[cfg.Controller]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", cfg.Controller)
	}
	return fn(cfg), nil
}

func (r *Registry) DefaultMetrics(model string) []sim.Metric {
	switch model {
	case config.ModelQuadrotor:
		return []sim.Metric{
			metrics.NewStability(100.0),
			metrics.NewControlEffort(),
			metrics.NewPathLengthOf("x", "y"),
		}
	default:
		return []sim.Metric{
			metrics.NewStability(100.0),
			metrics.NewControlEffort(),
			metrics.NewPathLength(),
		}
	}
}
