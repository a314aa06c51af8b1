package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/estimation"
	"github.com/san-kum/rigidsim/internal/physics"
)

func TestRunCreepPreset(t *testing.T) {
	cfg := config.GetPreset(config.ModelDiffDrive, "creep")
	cfg.Duration = 0.5

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.StepsTaken != 1 {
		t.Fatalf("expected 1 step, got %d", res.StepsTaken)
	}
	if x := res.Final()[0]; math.Abs(x-0.0125) > 1e-12 {
		t.Errorf("expected x 0.0125, got %v", x)
	}
	if _, ok := res.Metrics["path_length"]; !ok {
		t.Error("expected path_length metric")
	}
}

func TestRunAllPresets(t *testing.T) {
	for _, model := range config.ListModels() {
		for _, name := range config.ListPresets(model) {
			t.Run(model+"/"+name, func(t *testing.T) {
				cfg := config.GetPreset(model, name)
				cfg.Duration = 20 * cfg.Dt

				e, err := New(cfg)
				if err != nil {
					t.Fatalf("setup failed: %v", err)
				}
				res, err := e.Run(context.Background())
				if err != nil {
					t.Fatalf("run failed: %v", err)
				}
				if len(res.Errors) != 0 {
					t.Errorf("unexpected errors: %v", res.Errors)
				}
				if res.StepsTaken != 20 {
					t.Errorf("expected 20 steps, got %d", res.StepsTaken)
				}
			})
		}
	}
}

func TestTrackedRunReportsVariance(t *testing.T) {
	cfg := config.GetPreset(config.ModelDiffDrive, "arc")
	cfg.DiffDrive.UpdateMatrices = true
	cfg.Duration = 1.0

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Metrics["position_variance"] <= 0 {
		t.Errorf("expected positive variance, got %v", res.Metrics["position_variance"])
	}

	tr, ok := e.Runner().(*runner[physics.DiffDriveInput]).model.(*estimation.Tracker)
	if !ok {
		t.Fatal("expected a tracked model")
	}
	if got, want := res.Metrics["position_variance"], tr.PositionVariance(); got != want {
		t.Errorf("expected variance after the last step %v, got %v", want, got)
	}
}

func TestQuadrotorFallsWithoutThrust(t *testing.T) {
	cfg := config.GetPreset(config.ModelQuadrotor, "drop")
	cfg.Duration = 0.1

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	z, err := res.Column("z")
	if err != nil {
		t.Fatal(err)
	}
	if z[len(z)-1] <= z[0] {
		t.Errorf("expected z to grow (NED), got %v -> %v", z[0], z[len(z)-1])
	}
}

func TestEnsembleSpreadsInitialStates(t *testing.T) {
	cfg := config.GetPreset(config.ModelDiffDrive, "euler")
	cfg.Duration = 0.5
	cfg.Runs = 3

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	results, err := e.Ensemble(context.Background(), 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if y0 := r.States[0][1]; y0 != float64(i) {
			t.Errorf("run %d: expected initial y %d, got %v", i, i, y0)
		}
	}
}

func TestQuadrotorEnsemble(t *testing.T) {
	cfg := config.GetPreset(config.ModelQuadrotor, "hover")
	cfg.Duration = 0.01
	cfg.Runs = 2

	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	results, err := e.Ensemble(context.Background(), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if results[1].States[0][0] != 0.5 {
		t.Errorf("expected x 0.5, got %v", results[1].States[0][0])
	}
}

func TestStep(t *testing.T) {
	cfg := config.GetPreset(config.ModelDiffDrive, "creep")
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Runner().Step(0); err != nil {
		t.Fatal(err)
	}
	if x := e.Runner().State().At(0); math.Abs(x-0.0125) > 1e-12 {
		t.Errorf("expected x 0.0125, got %v", x)
	}
}

func TestRunnerParams(t *testing.T) {
	cfg := config.GetPreset(config.ModelDiffDrive, "heading")
	cfg.DiffDrive.ErrorStd = [2]float64{0.01, 0.01}
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := e.Runner()
	if k := r.Params()["K"]; k != 1.5 {
		t.Errorf("expected K 1.5, got %v", k)
	}
	r.SetParam("V", 0.8)
	if v := r.Params()["V"]; v != 0.8 {
		t.Errorf("expected V 0.8 after SetParam, got %v", v)
	}

	plain, err := New(config.GetPreset(config.ModelDiffDrive, "creep"))
	if err != nil {
		t.Fatal(err)
	}
	if p := plain.Runner().Params(); len(p) != 0 {
		t.Errorf("expected no params for constant controller, got %v", p)
	}
}

func TestNewRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown controller", func(c *config.Config) { c.Controller = "joystick" }},
		{"wheels on v1", func(c *config.Config) { c.Controller = "wheels" }},
		{"heading on v3", func(c *config.Config) {
			c.Controller = "heading"
			c.DiffDrive.Version = "v3"
		}},
		{"invalid config", func(c *config.Config) { c.Dt = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestListControllers(t *testing.T) {
	r := NewRegistry()
	got := r.ListControllers(config.ModelQuadrotor)
	want := []string{"altitude", "hover", "none", "schedule"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
	if r.ListControllers("boat") != nil {
		t.Error("expected nil for unknown model")
	}
}

func TestNoisyRunIsRepeatable(t *testing.T) {
	run := func(seed int64) []float64 {
		cfg := config.GetPreset(config.ModelDiffDrive, "arc")
		cfg.DiffDrive.ErrorStd = [2]float64{0.01, 0.01}
		cfg.DiffDrive.UpdateMatrices = true
		cfg.Duration = 0.5
		cfg.Seed = seed

		e, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		res, err := e.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res.States[len(res.States)-1]
	}

	a, b, c := run(7), run(7), run(8)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged: %v vs %v", a, b)
		}
	}
	if a[0] == c[0] && a[1] == c[1] {
		t.Errorf("different seeds gave the same pose %v", a)
	}
}
