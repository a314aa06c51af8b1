package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/physics"
)

func TestEnsembleRunsIndependentModels(t *testing.T) {
	build := func(i int) (*Simulator[physics.DiffDriveInput], error) {
		return straightLine(float64(i + 1)), nil
	}
	e := NewEnsemble[physics.DiffDriveInput](build, 4)

	results, err := e.Run(context.Background(), Config{Dt: 0.1, Duration: 1})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		want := float64(i + 1)
		if got := r.Final()[0]; math.Abs(got-want) > 1e-9 {
			t.Errorf("run %d: expected x %v, got %v", i, want, got)
		}
	}
}

func TestEnsembleFailure(t *testing.T) {
	boom := errors.New("boom")
	build := func(i int) (*Simulator[physics.DiffDriveInput], error) {
		if i == 2 {
			return nil, boom
		}
		d := physics.NewDiffDrive(physics.V2, false)
		return New[physics.DiffDriveInput](d, control.NewConstant[physics.DiffDriveInput](physics.V2Input{V: 1})), nil
	}
	e := NewEnsemble[physics.DiffDriveInput](build, 3)
	e.SetLimit(1)

	if _, err := e.Run(context.Background(), Config{Dt: 0.1, Duration: 1}); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
