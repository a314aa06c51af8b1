package sim

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Input is a model input that can be recorded as plain numbers.
type Input interface {
	Values() []float64
}

type Metric interface {
	Name() string
	Observe(s *dynamo.SysState, u []float64, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s *dynamo.SysState, u []float64, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		ValidateState: true,
	}
}

type Result struct {
	Names      []string
	States     [][]float64
	Inputs     [][]float64
	Times      []float64
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last recorded state values.
func (r *Result) Final() []float64 {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Column returns the trajectory of one named state variable.
func (r *Result) Column(name string) ([]float64, error) {
	for i, n := range r.Names {
		if n != name {
			continue
		}
		col := make([]float64, len(r.States))
		for j, s := range r.States {
			col[j] = s[i]
		}
		return col, nil
	}
	return nil, &dynamo.NameError{Name: name, Valid: r.Names}
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return dynamo.ErrInvalidState
}
