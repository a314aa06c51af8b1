package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/estimation"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

var log = logrus.WithField("component", "experiment")

// Initial pose covariance and error-term noise for tracked DiffDrive runs.
// A configured error_std replaces trackerQ.
var (
	trackerP0 = mat.NewDiagDense(3, []float64{1e-4, 1e-4, 1e-4})
	trackerQ  = mat.NewDiagDense(2, []float64{1e-4, 1e-5})
)

// Runner is a configured simulation with its input type erased.
type Runner interface {
	Run(ctx context.Context) (*sim.Result, error)
	// Step advances the model by one time step from time t.
	Step(t float64) error
	State() *dynamo.SysState
	AddObserver(o sim.Observer)
	// Params lists the controller's tunable parameters, nil when it has none.
	Params() map[string]float64
	SetParam(name string, value float64)
}

type runner[I sim.Input] struct {
	sim   *sim.Simulator[I]
	model dynamo.MotionModel[I]
	ctrl  control.Controller[I]
	cfg   sim.Config
}

func (r *runner[I]) Run(ctx context.Context) (*sim.Result, error) { return r.sim.Run(ctx, r.cfg) }

func (r *runner[I]) Step(t float64) error {
	_, err := r.model.Evaluate(r.ctrl.Compute(r.model.State(), t))
	return err
}

func (r *runner[I]) State() *dynamo.SysState { return r.model.State() }

func (r *runner[I]) AddObserver(o sim.Observer) { r.sim.AddObserver(o) }

func (r *runner[I]) Params() map[string]float64 {
	if t, ok := r.ctrl.(control.Tunable); ok {
		return t.GetParams()
	}
	return nil
}

func (r *runner[I]) SetParam(name string, value float64) {
	if t, ok := r.ctrl.(control.Tunable); ok {
		t.SetParam(name, value)
	}
}

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	runner   Runner
}

// New builds the model and controller described by cfg.
func New(cfg *config.Config) (*Experiment, error) {
	return NewWithRegistry(cfg, NewRegistry())
}

func NewWithRegistry(cfg *config.Config, registry *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Experiment{cfg: cfg, registry: registry}
	r, err := e.build(cfg.GetInitState())
	if err != nil {
		return nil, err
	}
	e.runner = r
	return e, nil
}

func (e *Experiment) simConfig() sim.Config {
	return sim.Config{Dt: e.cfg.Dt, Duration: e.cfg.Duration, ValidateState: true}
}

func (e *Experiment) build(state *dynamo.SysState) (Runner, error) {
	switch e.cfg.Model {
	case config.ModelDiffDrive:
		return e.buildDiffDrive(state)
	case config.ModelQuadrotor:
		return e.buildQuadrotor(state)
	}
	return nil, fmt.Errorf("unknown model: %s", e.cfg.Model)
}

func (e *Experiment) buildDiffDrive(state *dynamo.SysState) (Runner, error) {
	version, err := e.cfg.Version()
	if err != nil {
		return nil, err
	}
	d, err := physics.NewDiffDriveFromState(version, state)
	if err != nil {
		return nil, err
	}
	d.SetTolerance(e.cfg.DiffDrive.Tolerance)
	d.SetTimeStep(e.cfg.Dt)
	d.SetMatrixUpdateFlag(false)

	ctrl, err := e.registry.diffDriveController(e.cfg, version)
	if err != nil {
		return nil, err
	}
	std := e.cfg.DiffDrive.ErrorStd
	if std != [2]float64{} {
		ctrl = control.NewNoisyDiffDrive(ctrl, std, uint64(e.cfg.Seed))
	}

	var model dynamo.MotionModel[physics.DiffDriveInput] = d
	var extra []sim.Metric
	if e.cfg.DiffDrive.UpdateMatrices {
		q := mat.Matrix(trackerQ)
		if std != [2]float64{} {
			q = mat.NewDiagDense(2, []float64{std[0] * std[0], std[1] * std[1]})
		}
		tr, err := estimation.NewTracker(d, trackerP0, q)
		if err != nil {
			return nil, err
		}
		model = tr
		extra = append(extra, estimation.NewVarianceMetric(tr))
	}

	s := sim.New(model, ctrl)
	for _, m := range append(e.registry.DefaultMetrics(e.cfg.Model), extra...) {
		s.AddMetric(m)
	}
	return &runner[physics.DiffDriveInput]{sim: s, model: model, ctrl: ctrl, cfg: e.simConfig()}, nil
}

func (e *Experiment) buildQuadrotor(state *dynamo.SysState) (Runner, error) {
	qcfg := e.cfg.Quadrotor
	qcfg.Dt = e.cfg.Dt
	q, err := physics.NewQuadrotor(qcfg, state)
	if err != nil {
		return nil, err
	}

	ctrl, err := e.registry.quadrotorController(e.cfg)
	if err != nil {
		return nil, err
	}

	s := sim.New[physics.MotorSpeeds](q, ctrl)
	for _, m := range e.registry.DefaultMetrics(e.cfg.Model) {
		s.AddMetric(m)
	}
	return &runner[physics.MotorSpeeds]{sim: s, model: q, ctrl: ctrl, cfg: e.simConfig()}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Runner returns the underlying runner for adding observers or stepping.
func (e *Experiment) Runner() Runner { return e.runner }

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	log.WithFields(logrus.Fields{
		"model":      e.cfg.Model,
		"controller": e.cfg.Controller,
		"duration":   e.cfg.Duration,
	}).Info("running experiment")
	return e.runner.Run(ctx)
}

// Ensemble runs cfg.Runs copies of the experiment in parallel. Run i starts
// from the configured state shifted by i*spread in x and y.
func (e *Experiment) Ensemble(ctx context.Context, spread float64) ([]*sim.Result, error) {
	runs := e.cfg.Runs
	if runs < 1 {
		runs = 1
	}

	// Each run gets its own model, controller and metrics.
	build := func(i int) (Runner, error) {
		state := e.cfg.GetInitState()
		offset := float64(i) * spread
		for _, name := range []string{"X", "Y", "x", "y"} {
			if v, err := state.Get(name); err == nil {
				_ = state.Set(name, v+offset)
			}
		}
		return e.build(state)
	}

	switch e.cfg.Model {
	case config.ModelQuadrotor:
		return runEnsemble[physics.MotorSpeeds](ctx, build, runs, e.simConfig())
	default:
		return runEnsemble[physics.DiffDriveInput](ctx, build, runs, e.simConfig())
	}
}

func runEnsemble[I sim.Input](ctx context.Context, build func(int) (Runner, error), runs int, cfg sim.Config) ([]*sim.Result, error) {
	ens := sim.NewEnsemble[I](func(i int) (*sim.Simulator[I], error) {
		r, err := build(i)
		if err != nil {
			return nil, err
		}
		typed, ok := r.(*runner[I])
		if !ok {
			return nil, fmt.Errorf("run %d: unexpected runner %T", i, r)
		}
		return typed.sim, nil
	}, runs)
	return ens.Run(ctx, cfg)
}
