package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

func straightLine(v float64) *Simulator[physics.DiffDriveInput] {
	d := physics.NewDiffDrive(physics.V2, false)
	return New[physics.DiffDriveInput](d, control.NewConstant[physics.DiffDriveInput](physics.V2Input{V: v}))
}

func TestSimulatorRun(t *testing.T) {
	sim := straightLine(1.0)

	cfg := Config{
		Dt:       0.1,
		Duration: 1.0,
	}

	result, err := sim.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if len(result.Inputs) != 10 {
		t.Errorf("expected 10 inputs, got %d", len(result.Inputs))
	}

	x := result.Final()[0]
	if math.Abs(x-1.0) > 1e-9 {
		t.Errorf("expected final x 1.0, got %.4f", x)
	}
	if dt := sim.Model().TimeStep(); dt != 0.1 {
		t.Errorf("expected model dt 0.1, got %v", dt)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := straightLine(1.0)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(s *dynamo.SysState, u []float64, time float64) {
	t.count++
	t.sum += s.At(0)
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := straightLine(1.0)

	metric := &testMetric{}
	sim.AddMetric(metric)

	cfg := Config{Dt: 0.1, Duration: 1.0}

	result, err := sim.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestSimulatorStopsOnInvalidState(t *testing.T) {
	cfg := physics.DefaultQuadrotorConfig()
	cfg.Mass = 0
	q, err := physics.NewQuadrotor(cfg, physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{}, [3]float64{}))
	if err != nil {
		t.Fatal(err)
	}
	sim := New[physics.MotorSpeeds](q, control.MotorSchedule{})

	result, err := sim.Run(context.Background(), Config{Dt: 0.001, Duration: 0.01, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errors))
	}
	if !errors.Is(result.Errors[0], dynamo.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", result.Errors[0])
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected 0 steps, got %d", result.StepsTaken)
	}
}

func TestSimulatorPropagatesModelErrors(t *testing.T) {
	d := physics.NewDiffDrive(physics.V1, true)
	sim := New[physics.DiffDriveInput](d, control.NewConstant[physics.DiffDriveInput](physics.V1Input{V: 1}))

	_, err := sim.Run(context.Background(), Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, dynamo.ErrMatrixNotFound) {
		t.Errorf("expected matrix not found, got %v", err)
	}
}

func TestSimulatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := straightLine(1).Run(ctx, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWithCallback(t *testing.T) {
	sim := straightLine(1.0)
	calls := 0
	err := sim.RunWithCallback(context.Background(), Config{Dt: 0.1, Duration: 1}, func(s *dynamo.SysState, in physics.DiffDriveInput, t float64) bool {
		calls++
		return calls < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestResultColumn(t *testing.T) {
	r := &Result{Names: []string{"X", "Y"}, States: [][]float64{{1, 2}, {3, 4}}}

	col, err := r.Column("Y")
	if err != nil {
		t.Fatal(err)
	}
	if col[0] != 2 || col[1] != 4 {
		t.Errorf("unexpected column %v", col)
	}
	if _, err := r.Column("Z"); !errors.Is(err, dynamo.ErrInvalidName) {
		t.Errorf("expected invalid name, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("DefaultConfig has invalid Dt")
	}
	if cfg.Duration <= 0 {
		t.Error("DefaultConfig has invalid Duration")
	}
}

func TestSimError(t *testing.T) {
	err := SimError{Time: 1.5, Step: 150, Message: "test error"}
	expected := "step 150 (t=1.5000): test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
}
