package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 10.0
	DefaultVelocity    = 0.5
	DefaultWheelRadius = 0.1
	DefaultHalfAxle    = 0.25
	DefaultKp          = 2.0
	DefaultKi          = 0.5
	DefaultKd          = 1.0
)

const (
	ModelDiffDrive = "diffdrive"
	ModelQuadrotor = "quadrotor"
)

type Config struct {
	Model            string                  `yaml:"model"`
	Controller       string                  `yaml:"controller"`
	Dt               float64                 `yaml:"dt"`
	Duration         float64                 `yaml:"duration"`
	Runs             int                     `yaml:"runs"`
	Seed             int64                   `yaml:"seed"`
	DiffDrive        DiffDriveConfig         `yaml:"diffdrive"`
	Quadrotor        physics.QuadrotorConfig `yaml:"quadrotor"`
	InitState        InitStateConfig         `yaml:"init_state"`
	ControllerParams ControllerConfig        `yaml:"controller_params"`
}

type DiffDriveConfig struct {
	Version        string  `yaml:"version"`
	UpdateMatrices bool    `yaml:"update_matrices"`
	Tolerance      float64 `yaml:"tolerance"`
	WheelRadius    float64 `yaml:"r"`
	HalfAxle       float64 `yaml:"l"`
	// ErrorStd is the standard deviation of the Gaussian noise added to
	// the two error terms on every step. Zero disables the noise.
	ErrorStd [2]float64 `yaml:"error_std"`
}

// InitStateConfig holds the initial state of either model. Theta is the
// heading of a DiffDrive and the pitch of a Quadrotor.
type InitStateConfig struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	Theta float64 `yaml:"theta"`
	U     float64 `yaml:"u"`
	V     float64 `yaml:"v"`
	W     float64 `yaml:"w"`
	P     float64 `yaml:"p"`
	Q     float64 `yaml:"q"`
	R     float64 `yaml:"r"`
	Phi   float64 `yaml:"phi"`
	Psi   float64 `yaml:"psi"`
}

type ControllerConfig struct {
	V      float64 `yaml:"v"`
	W      float64 `yaml:"w"`
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      ModelDiffDrive,
		Controller: "constant",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Runs:       1,
		DiffDrive: DiffDriveConfig{
			Version:     "v1",
			Tolerance:   dynamo.DefaultTolerance,
			WheelRadius: DefaultWheelRadius,
			HalfAxle:    DefaultHalfAxle,
		},
		Quadrotor: physics.DefaultQuadrotorConfig(),
		ControllerParams: ControllerConfig{
			V:  DefaultVelocity,
			Kp: DefaultKp,
			Ki: DefaultKi,
			Kd: DefaultKd,
		},
	}
}

// DefaultFor returns the defaults for model. A quadrotor hovers and steps
// at its own integration step.
func DefaultFor(model string) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	if model == ModelQuadrotor {
		cfg.Controller = "hover"
		cfg.Dt = cfg.Quadrotor.Dt
	}
	return cfg
}

func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads a YAML config on top of the defaults.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	return SaveFs(afero.NewOsFs(), path, cfg)
}

func SaveFs(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0644)
}

// Version returns the parsed DiffDrive update law.
func (c *Config) Version() (physics.DynamicVersion, error) {
	return physics.ParseDynamicVersion(c.DiffDrive.Version)
}

// Validate checks the parts of the config the selected model uses.
func (c *Config) Validate() error {
	var errs []error
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if c.Runs < 0 {
		errs = append(errs, fmt.Errorf("runs must not be negative, got %d", c.Runs))
	}

	switch c.Model {
	case ModelDiffDrive:
		version, err := c.Version()
		if err != nil {
			errs = append(errs, err)
		}
		if c.DiffDrive.Tolerance <= 0 {
			errs = append(errs, fmt.Errorf("tolerance must be positive, got %g", c.DiffDrive.Tolerance))
		}
		if err == nil && version == physics.V3 && (c.DiffDrive.WheelRadius <= 0 || c.DiffDrive.HalfAxle <= 0) {
			errs = append(errs, errors.New("V3 needs positive wheel radius and half axle length"))
		}
		if c.DiffDrive.ErrorStd[0] < 0 || c.DiffDrive.ErrorStd[1] < 0 {
			errs = append(errs, fmt.Errorf("error_std must not be negative, got %v", c.DiffDrive.ErrorStd))
		}
	case ModelQuadrotor:
		if err := c.Quadrotor.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown model: %s", c.Model))
	}
	return errors.Join(errs...)
}

// GetInitState builds the initial state of the configured model.
func (c *Config) GetInitState() *dynamo.SysState {
	s := c.InitState
	switch c.Model {
	case ModelQuadrotor:
		return physics.NewQuadrotorState(
			[3]float64{s.X, s.Y, s.Z},
			[3]float64{s.U, s.V, s.W},
			[3]float64{s.P, s.Q, s.R},
			[3]float64{s.Phi, s.Theta, s.Psi},
		)
	default:
		return dynamo.NewSysState(
			dynamo.Entry{Name: "X", Value: s.X},
			dynamo.Entry{Name: "Y", Value: s.Y},
			dynamo.Entry{Name: "Theta", Value: s.Theta},
		)
	}
}

func (c *Config) GetControllerParams() map[string]float64 {
	return map[string]float64{
		"v":      c.ControllerParams.V,
		"w":      c.ControllerParams.W,
		"kp":     c.ControllerParams.Kp,
		"ki":     c.ControllerParams.Ki,
		"kd":     c.ControllerParams.Kd,
		"target": c.ControllerParams.Target,
	}
}

// SetParam sets a numeric field by name. Controller gains use their yaml
// names (kp, target, ...); quadrotor parameters are prefixed with
// "quadrotor." as in "quadrotor.mass".
func (c *Config) SetParam(name string, value float64) error {
	if rest, ok := strings.CutPrefix(name, "quadrotor."); ok {
		return c.Quadrotor.SetParam(rest, value)
	}
	switch name {
	case "dt":
		c.Dt = value
		c.Quadrotor.Dt = value
	case "duration":
		c.Duration = value
	case "v":
		c.ControllerParams.V = value
	case "w":
		c.ControllerParams.W = value
	case "kp":
		c.ControllerParams.Kp = value
	case "ki":
		c.ControllerParams.Ki = value
	case "kd":
		c.ControllerParams.Kd = value
	case "target":
		c.ControllerParams.Target = value
	case "tol":
		c.DiffDrive.Tolerance = value
	case "r":
		c.DiffDrive.WheelRadius = value
	case "l":
		c.DiffDrive.HalfAxle = value
	case "x":
		c.InitState.X = value
	case "y":
		c.InitState.Y = value
	case "z":
		c.InitState.Z = value
	case "theta":
		c.InitState.Theta = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
