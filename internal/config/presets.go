package config

import (
	"sort"

	"github.com/san-kum/rigidsim/internal/physics"
)

func diffDrive(version string, r, l float64) DiffDriveConfig {
	return DiffDriveConfig{Version: version, Tolerance: 1e-8, WheelRadius: r, HalfAxle: l}
}

func quadrotor(dt float64) physics.QuadrotorConfig {
	q := physics.DefaultQuadrotorConfig()
	q.Dt = dt
	return q
}

var Presets = map[string]map[string]*Config{
	ModelDiffDrive: {
		"creep": {
			Model: ModelDiffDrive, Controller: "constant", Dt: 0.5, Duration: 10.0,
			DiffDrive:        diffDrive("v1", 0.1, 0.25),
			ControllerParams: ControllerConfig{V: 0.05},
		},
		"arc": {
			Model: ModelDiffDrive, Controller: "constant", Dt: 0.05, Duration: 20.0,
			DiffDrive:        diffDrive("v1", 0.1, 0.25),
			ControllerParams: ControllerConfig{V: 0.5, W: 0.2},
		},
		"euler": {
			Model: ModelDiffDrive, Controller: "constant", Dt: 0.05, Duration: 20.0,
			DiffDrive:        diffDrive("v2", 0.1, 0.25),
			ControllerParams: ControllerConfig{V: 0.5, W: 0.2},
		},
		"wheels": {
			Model: ModelDiffDrive, Controller: "wheels", Dt: 0.05, Duration: 20.0,
			DiffDrive:        diffDrive("v3", 0.1, 0.25),
			ControllerParams: ControllerConfig{V: 0.4, W: -0.1},
		},
		"heading": {
			Model: ModelDiffDrive, Controller: "heading", Dt: 0.05, Duration: 15.0,
			DiffDrive:        diffDrive("v2", 0.1, 0.25),
			InitState:        InitStateConfig{Theta: 2.0},
			ControllerParams: ControllerConfig{V: 0.5, Kp: 1.5, Target: 0.0},
		},
	},
	ModelQuadrotor: {
		"schedule": {
			Model: ModelQuadrotor, Controller: "schedule", Dt: 0.0001, Duration: 2.0,
			Quadrotor: quadrotor(0.0001),
		},
		"hover": {
			Model: ModelQuadrotor, Controller: "hover", Dt: 0.001, Duration: 5.0,
			Quadrotor: quadrotor(0.001),
		},
		"climb": {
			Model: ModelQuadrotor, Controller: "altitude", Dt: 0.001, Duration: 10.0,
			Quadrotor:        quadrotor(0.001),
			ControllerParams: ControllerConfig{Kp: 2.0, Ki: 0.5, Kd: 1.0, Target: 1.0},
		},
		"drop": {
			Model: ModelQuadrotor, Controller: "none", Dt: 0.001, Duration: 2.0,
			Quadrotor: quadrotor(0.001),
			InitState: InitStateConfig{Z: -10},
		},
	},
}

// GetPreset returns a copy of the named preset so callers can override
// fields freely.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	if c.Runs == 0 {
		c.Runs = 1
	}
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModels() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
