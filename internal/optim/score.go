package optim

import (
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/sim"
)

// MetricScore scores a run by one of its recorded metrics.
func MetricScore(name string) Score {
	return func(r *sim.Result) (float64, error) {
		v, ok := r.Metrics[name]
		if !ok {
			return 0, fmt.Errorf("metric not recorded: %s", name)
		}
		return v, nil
	}
}

// TrackingCost scores a run by the RMS distance of a state column from
// target over the whole trajectory.
func TrackingCost(name string, target float64) Score {
	return func(r *sim.Result) (float64, error) {
		col, err := r.Column(name)
		if err != nil {
			return 0, err
		}
		if len(col) == 0 {
			return 0, fmt.Errorf("empty trajectory")
		}
		var sum float64
		for _, v := range col {
			d := v - target
			sum += d * d
		}
		return math.Sqrt(sum / float64(len(col))), nil
	}
}

// ConfigBuilder returns a Builder that applies each grid point to a copy
// of base with Config.SetParam.
func ConfigBuilder(base *config.Config) Builder {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(cfg)
	}
}
