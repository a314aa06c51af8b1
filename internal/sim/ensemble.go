package sim

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Builder returns a fresh simulator for run i. Models are not shared
// between runs.
type Builder[I Input] func(i int) (*Simulator[I], error)

// Ensemble runs independent simulations in parallel.
type Ensemble[I Input] struct {
	build   Builder[I]
	numRuns int
	limit   int
}

func NewEnsemble[I Input](build Builder[I], numRuns int) *Ensemble[I] {
	return &Ensemble[I]{build: build, numRuns: numRuns, limit: runtime.NumCPU()}
}

// SetLimit caps the number of runs in flight. Zero or less means no cap.
func (e *Ensemble[I]) SetLimit(n int) { e.limit = n }

// Run returns one result per run in run order. The first failure cancels
// the remaining runs.
func (e *Ensemble[I]) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			s, err := e.build(i)
			if err != nil {
				return err
			}
			res, err := s.Run(ctx, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"runs": e.numRuns}).Debug("ensemble finished")
	return results, nil
}
