package automation

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/spf13/afero"
)

const scenarioYAML = `
name: tour
description: drive then hover
steps:
  - name: drive
    model: diffdrive
    dt: 0.1
    duration: 1
    diffdrive:
      version: v2
    controller_params:
      v: 2
    save_as: straight
  - model: quadrotor
    preset: hover
    duration: 0.01
`

func TestLoadScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "tour.yaml", []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(fs, "tour.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "tour" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}

	drive := sc.Steps[0]
	if drive.SaveAs != "straight" || drive.Config.DiffDrive.Version != "v2" {
		t.Errorf("unexpected step: %+v", drive)
	}
	if drive.Config.ControllerParams.V != 2 {
		t.Errorf("expected v=2, got %g", drive.Config.ControllerParams.V)
	}
	// Untouched fields keep their defaults.
	if drive.Config.DiffDrive.WheelRadius != config.DefaultWheelRadius {
		t.Errorf("expected default wheel radius, got %g", drive.Config.DiffDrive.WheelRadius)
	}

	hover := sc.Steps[1]
	if hover.Name != "quadrotor/hover" || hover.Config.Controller != "hover" {
		t.Errorf("unexpected step: %+v", hover)
	}
	if hover.Config.Duration != 0.01 {
		t.Errorf("expected duration override, got %g", hover.Config.Duration)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "empty.yaml", []byte("name: empty\n"), 0644)
	_ = afero.WriteFile(fs, "bad.yaml", []byte("steps:\n  - model: quadrotor\n    preset: nope\n"), 0644)

	if _, err := LoadScenario(fs, "empty.yaml"); err == nil {
		t.Error("expected error for scenario without steps")
	}
	if _, err := LoadScenario(fs, "bad.yaml"); err == nil {
		t.Error("expected error for unknown preset")
	}
	if _, err := LoadScenario(fs, "missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "tour.yaml", []byte(scenarioYAML), 0644)
	sc, err := LoadScenario(fs, "tour.yaml")
	if err != nil {
		t.Fatal(err)
	}

	st := storage.NewWithFs(fs, "runs")
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	outcomes, err := RunScenario(context.Background(), sc, st)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if x := outcomes[0].Result.Final()[0]; math.Abs(x-2) > 1e-9 {
		t.Errorf("expected X=2, got %g", x)
	}

	meta, err := st.Load(outcomes[0].RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Name != "straight" {
		t.Errorf("expected saved name, got %q", meta.Name)
	}
}

func TestRunScenarioStopsOnFailure(t *testing.T) {
	bad := config.DefaultConfig()
	bad.Dt = -1
	sc := &Scenario{Steps: []Step{
		{Name: "ok", Config: straight(1)},
		{Name: "bad", Config: bad},
		{Name: "never", Config: straight(1)},
	}}

	outcomes, err := RunScenario(context.Background(), sc, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(outcomes) != 1 || outcomes[0].RunID != "" {
		t.Errorf("expected one unsaved outcome, got %+v", outcomes)
	}
}

func straight(v float64) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DiffDrive.Version = "v2"
	cfg.Dt = 0.1
	cfg.Duration = 1
	cfg.ControllerParams.V = v
	return cfg
}

func TestSweepValues(t *testing.T) {
	s := &Sweep{Min: 0, Max: 1, Steps: 5}
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("value %d: expected %g, got %g", i, want[i], got[i])
		}
	}
	if v := (&Sweep{Min: 3, Max: 9, Steps: 1}).Values(); len(v) != 1 || v[0] != 3 {
		t.Errorf("single step sweep: %v", v)
	}
}

func TestRunSweep(t *testing.T) {
	points, err := RunSweep(context.Background(), &Sweep{Base: straight(0), Param: "v", Min: 1, Max: 3, Steps: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range points {
		want := float64(i + 1)
		if p.Value != want || math.Abs(p.Final[0]-want) > 1e-9 {
			t.Errorf("point %d: value %g final %v", i, p.Value, p.Final)
		}
	}

	if _, err := RunSweep(context.Background(), &Sweep{Base: straight(0), Param: "bogus", Steps: 2}); err == nil {
		t.Error("expected error for unknown param")
	}
	if _, err := RunSweep(context.Background(), &Sweep{Base: straight(0), Param: "dt", Min: -1, Max: 0.1, Steps: 2}); err == nil {
		t.Error("expected error for invalid dt")
	}
}

func TestMonteCarlo(t *testing.T) {
	mc := &MonteCarlo{Base: straight(1), Perturbation: 0.5, Trials: 8, Seed: 3}

	trials, err := RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 8 {
		t.Fatalf("expected 8 trials, got %d", len(trials))
	}
	for _, tr := range trials {
		if math.Abs(tr.Init[0]) > 0.5 || math.Abs(tr.Init[1]) > 0.5 {
			t.Errorf("trial %d started outside the box: %v", tr.ID, tr.Init)
		}
		x, y, ok := tr.Final()
		if !ok || math.Abs(x-tr.Init[0]-1) > 1e-9 || math.Abs(y-tr.Init[1]) > 1e-9 {
			t.Errorf("trial %d: unexpected final (%g, %g)", tr.ID, x, y)
		}
	}

	again, err := RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatal(err)
	}
	for i := range trials {
		if trials[i].Init != again[i].Init {
			t.Errorf("trial %d not repeatable: %v vs %v", i, trials[i].Init, again[i].Init)
		}
	}

	s := MonteCarloStats(trials)
	if s.Stable != 8 || s.Unstable != 0 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.VarX <= 0 || s.VarY <= 0 {
		t.Errorf("expected spread in final positions: %+v", s)
	}
	if !math.IsNaN(s.PredictedVariance) {
		t.Errorf("untracked runs have no predicted variance, got %g", s.PredictedVariance)
	}
}

func TestMonteCarloPredictedVariance(t *testing.T) {
	base := straight(1)
	base.DiffDrive.UpdateMatrices = true
	base.DiffDrive.ErrorStd = [2]float64{0.05, 0.05}

	trials, err := RunMonteCarlo(context.Background(), &MonteCarlo{Base: base, Trials: 4, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	s := MonteCarloStats(trials)
	if s.Stable != 4 || !(s.PredictedVariance > 0) {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.VarX <= 0 {
		t.Errorf("noise should spread the final positions: %+v", s)
	}
}

func TestMonteCarloRejectsBadInput(t *testing.T) {
	if _, err := RunMonteCarlo(context.Background(), &MonteCarlo{Base: straight(1)}); err == nil {
		t.Error("expected error for zero trials")
	}
	if _, err := RunMonteCarlo(context.Background(), &MonteCarlo{Trials: 1}); err == nil {
		t.Error("expected error for missing base")
	}
}
