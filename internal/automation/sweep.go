package automation

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sweep varies one config parameter (any name accepted by
// Config.SetParam) over [Min, Max] in Steps evenly spaced values.
type Sweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	Steps int
}

type SweepPoint struct {
	Value   float64
	Final   []float64
	Names   []string
	Metrics map[string]float64
}

// Values returns the swept parameter values.
func (s *Sweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	vals := make([]float64, s.Steps)
	step := (s.Max - s.Min) / float64(s.Steps-1)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	vals[len(vals)-1] = s.Max
	return vals
}

// RunSweep runs one experiment per value, in parallel, and returns the
// points in value order. Any failing point fails the sweep.
func RunSweep(ctx context.Context, sweep *Sweep) ([]SweepPoint, error) {
	if sweep.Base == nil {
		return nil, fmt.Errorf("sweep has no base config")
	}
	if err := sweep.Base.Clone().SetParam(sweep.Param, sweep.Min); err != nil {
		return nil, err
	}

	values := sweep.Values()
	points := make([]SweepPoint, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, v := range values {
		i, v := i, v
		g.Go(func() error {
			cfg := sweep.Base.Clone()
			if err := cfg.SetParam(sweep.Param, v); err != nil {
				return err
			}
			exp, err := experiment.New(cfg)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
			}
			result, err := exp.Runner().Run(ctx)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
			}
			points[i] = SweepPoint{Value: v, Final: result.Final(), Names: result.Names, Metrics: result.Metrics}
			log.WithFields(logrus.Fields{"param": sweep.Param, "value": v}).Debug("sweep point finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"param": sweep.Param, "points": len(points)}).Info("sweep finished")
	return points, nil
}
