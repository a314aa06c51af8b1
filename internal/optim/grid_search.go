package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.WithField("component", "optim")

var ErrNoTrials = errors.New("no trial succeeded")

// Builder returns an experiment configured with one point of the grid.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

// Score rates a finished run. Lower is better.
type Score func(*sim.Result) (float64, error)

type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	limit      int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d params and %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("param %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, limit: runtime.NumCPU()}, nil
}

// SetLimit caps the number of trials in flight. Zero or less means no cap.
func (g *GridSearch) SetLimit(n int) { g.limit = n }

// Points enumerates the cartesian product of the ranges, last parameter
// varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[depth]))
		for _, p := range points {
			for _, val := range g.ranges[depth] {
				q := make(map[string]float64, len(p)+1)
				for k, v := range p {
					q[k] = v
				}
				q[name] = val
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search runs every grid point and returns the trials sorted by score,
// best first. Failed trials are kept at the end with Err set; Search only
// fails when no trial succeeds or ctx is cancelled.
func (g *GridSearch) Search(ctx context.Context, build Builder, score Score) ([]Trial, error) {
	points := g.Points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	if g.limit > 0 {
		eg.SetLimit(g.limit)
	}
	for i, p := range points {
		i, p := i, p
		eg.Go(func() error {
			trials[i] = runTrial(ctx, p, build, score)
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		return a.Score < b.Score
	})
	if trials[0].Err != nil {
		return trials, fmt.Errorf("%w: %w", ErrNoTrials, trials[0].Err)
	}

	log.WithFields(logrus.Fields{
		"trials": len(trials),
		"best":   trials[0].Score,
	}).Info("grid search finished")
	return trials, nil
}

func runTrial(ctx context.Context, params map[string]float64, build Builder, score Score) Trial {
	t := Trial{Params: params, Score: math.Inf(1)}

	exp, err := build(params)
	if err != nil {
		t.Err = err
		return t
	}
	result, err := exp.Runner().Run(ctx)
	if err != nil {
		t.Err = err
		return t
	}
	s, err := score(result)
	if err != nil {
		t.Err = err
		return t
	}
	if math.IsNaN(s) {
		t.Err = fmt.Errorf("score is NaN")
		return t
	}
	t.Score = s
	log.WithFields(logrus.Fields{"params": params, "score": s}).Debug("trial finished")
	return t
}
