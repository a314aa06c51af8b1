package automation

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
)

const defaultBound = 1e6

// MonteCarlo runs Trials copies of Base with the initial x and y drawn
// uniformly from ±Perturbation around the configured position. Trial i
// also uses Base.Seed+i as its noise seed, so error_std noise differs
// between trials.
type MonteCarlo struct {
	Base         *config.Config
	Perturbation float64
	Trials       int
	Seed         uint64
	// Bound is the largest final state magnitude still counted as stable.
	// Zero means 1e6.
	Bound float64
}

type Trial struct {
	ID     int
	Init   [2]float64
	Result *sim.Result
	Stable bool
}

// Final returns the final planar position of the trial.
func (t Trial) Final() (x, y float64, ok bool) {
	final := t.Result.Final()
	xi, yi := -1, -1
	for i, n := range t.Result.Names {
		switch n {
		case "X", "x":
			xi = i
		case "Y", "y":
			yi = i
		}
	}
	if final == nil || xi < 0 || yi < 0 {
		return 0, 0, false
	}
	return final[xi], final[yi], true
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarlo) ([]Trial, error) {
	if mc.Base == nil {
		return nil, fmt.Errorf("monte carlo has no base config")
	}
	if mc.Trials < 1 {
		return nil, fmt.Errorf("trials must be positive, got %d", mc.Trials)
	}
	bound := mc.Bound
	if bound <= 0 {
		bound = defaultBound
	}

	// Draw every start up front so the trials do not depend on scheduling.
	x0, y0 := mc.Base.InitState.X, mc.Base.InitState.Y
	d := math.Abs(mc.Perturbation)
	starts := distmv.NewUniform([]r1.Interval{{Min: x0 - d, Max: x0 + d}, {Min: y0 - d, Max: y0 + d}}, rand.NewSource(mc.Seed))
	configs := make([]*config.Config, mc.Trials)
	trials := make([]Trial, mc.Trials)
	for i := range configs {
		p := starts.Rand(nil)
		cfg := mc.Base.Clone()
		cfg.InitState.X, cfg.InitState.Y = p[0], p[1]
		cfg.Seed = mc.Base.Seed + int64(i)
		configs[i] = cfg
		trials[i] = Trial{ID: i, Init: [2]float64{p[0], p[1]}}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, cfg := range configs {
		i, cfg := i, cfg
		g.Go(func() error {
			exp, err := experiment.New(cfg)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			result, err := exp.Runner().Run(ctx)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i].Result = result
			trials[i].Stable = bounded(result, bound)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"trials": mc.Trials, "seed": mc.Seed}).Info("monte carlo finished")
	return trials, nil
}

func bounded(r *sim.Result, bound float64) bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, v := range r.Final() {
		if math.IsNaN(v) || math.Abs(v) > bound {
			return false
		}
	}
	return true
}

// Summary collects the spread of the final positions of the stable
// trials. PredictedVariance is the mean position_variance reported by
// tracked runs, NaN when no run was tracked.
type Summary struct {
	Stable            int
	Unstable          int
	MeanX, MeanY      float64
	VarX, VarY        float64
	PredictedVariance float64
}

func MonteCarloStats(trials []Trial) Summary {
	var s Summary
	var xs, ys, predicted []float64
	for _, t := range trials {
		if !t.Stable {
			s.Unstable++
			continue
		}
		s.Stable++
		if x, y, ok := t.Final(); ok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
		if v, ok := t.Result.Metrics["position_variance"]; ok {
			predicted = append(predicted, v)
		}
	}

	if len(xs) > 0 {
		s.MeanX, s.MeanY = stat.Mean(xs, nil), stat.Mean(ys, nil)
	}
	if len(xs) > 1 {
		s.VarX, s.VarY = stat.Variance(xs, nil), stat.Variance(ys, nil)
	}
	s.PredictedVariance = math.NaN()
	if len(predicted) > 0 {
		s.PredictedVariance = stat.Mean(predicted, nil)
	}
	return s
}
