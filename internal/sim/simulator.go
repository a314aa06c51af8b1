package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "sim")

type timeStepper interface {
	SetTimeStep(dt float64)
}

// Simulator steps a motion model with inputs from a controller.
type Simulator[I Input] struct {
	model      dynamo.MotionModel[I]
	controller control.Controller[I]
	metrics    []Metric
	observers  []Observer
}

func New[I Input](model dynamo.MotionModel[I], controller control.Controller[I]) *Simulator[I] {
	return &Simulator[I]{
		model:      model,
		controller: controller,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator[I]) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator[I]) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator[I]) Model() dynamo.MotionModel[I] { return s.model }

// Run integrates the model from its current state for cfg.Duration. The
// model time step is set to cfg.Dt when the model allows it.
func (s *Simulator[I]) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if ts, ok := s.model.(timeStepper); ok {
		ts.SetTimeStep(cfg.Dt)
	}

	steps := int(cfg.Duration/cfg.Dt + 1e-9)
	x := s.model.State()
	result := &Result{
		Names:   x.Names(),
		States:  make([][]float64, 0, steps+1),
		Inputs:  make([][]float64, 0, steps),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	result.States = append(result.States, x.Values())
	result.Times = append(result.Times, t)

	log.WithFields(logrus.Fields{"steps": steps, "dt": cfg.Dt}).Debug("starting run")

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		in := s.controller.Compute(x, t)
		u := in.Values()

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		next, err := s.model.Evaluate(in)
		if err != nil {
			return result, fmt.Errorf("step %d: %w", i, err)
		}

		if cfg.ValidateState && !next.IsValid() {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			log.WithError(err).Warn("stopping run")
			result.Errors = append(result.Errors, err)
			break
		}

		x = next
		t += cfg.Dt
		result.StepsTaken++

		result.States = append(result.States, x.Values())
		result.Inputs = append(result.Inputs, u)
		result.Times = append(result.Times, t)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.WithField("steps", result.StepsTaken).Debug("run finished")
	return result, nil
}

func (s *Simulator[I]) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

// RunWithCallback steps the model until cfg.Duration or until callback
// returns false. Nothing is recorded.
func (s *Simulator[I]) RunWithCallback(ctx context.Context, cfg Config, callback func(*dynamo.SysState, I, float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	if ts, ok := s.model.(timeStepper); ok {
		ts.SetTimeStep(cfg.Dt)
	}

	x := s.model.State()
	t := 0.0

	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		in := s.controller.Compute(x, t)

		if !callback(x, in, t) {
			return nil
		}

		next, err := s.model.Evaluate(in)
		if err != nil {
			return err
		}
		x = next
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return fmt.Errorf("invalid state at t=%.4f", t)
		}
	}

	return nil
}
