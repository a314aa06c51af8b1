package estimation

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"gonum.org/v1/gonum/mat"
)

// Tracker is a DiffDrive whose pose covariance follows every step.
type Tracker struct {
	*physics.DiffDrive
	p *mat.Dense
	q *mat.Dense
}

// NewTracker starts from covariance p0 (3×3) with error-term noise q (2×2).
func NewTracker(d *physics.DiffDrive, p0, q mat.Matrix) (*Tracker, error) {
	if r, c := p0.Dims(); r != 3 || c != 3 {
		return nil, fmt.Errorf("%w: P0 is %dx%d, want 3x3", ErrShape, r, c)
	}
	if r, c := q.Dims(); r != 2 || c != 2 {
		return nil, fmt.Errorf("%w: Q is %dx%d, want 2x2", ErrShape, r, c)
	}
	return &Tracker{DiffDrive: d, p: mat.DenseCopyOf(p0), q: mat.DenseCopyOf(q)}, nil
}

// Evaluate integrates the pose and propagates the covariance with the
// Jacobians taken at the pre-step pose.
func (t *Tracker) Evaluate(in physics.DiffDriveInput) (*dynamo.SysState, error) {
	if !t.HasMatrix("F") || !t.HasMatrix("L") {
		if err := t.InitializeMatrices(in); err != nil {
			return nil, err
		}
	}
	t.SetMatrixUpdateFlag(true)

	state, err := t.DiffDrive.Evaluate(in)
	if err != nil {
		return nil, err
	}

	F, err := t.Matrix("F")
	if err != nil {
		return nil, err
	}
	L, err := t.Matrix("L")
	if err != nil {
		return nil, err
	}
	next, err := Propagate(t.p, F, L, t.q)
	if err != nil {
		return nil, err
	}
	t.p = next
	return state, nil
}

// Covariance returns a copy of the current pose covariance.
func (t *Tracker) Covariance() *mat.Dense { return mat.DenseCopyOf(t.p) }

// PositionVariance is the trace of the x-y block of the covariance.
func (t *Tracker) PositionVariance() float64 { return t.p.At(0, 0) + t.p.At(1, 1) }

// VarianceMetric reports the position variance of a tracker after its
// latest step. Metrics are observed before each step, so the value is read
// from the tracker rather than cached.
type VarianceMetric struct {
	t        *Tracker
	observed bool
}

func NewVarianceMetric(t *Tracker) *VarianceMetric { return &VarianceMetric{t: t} }

func (m *VarianceMetric) Name() string { return "position_variance" }

func (m *VarianceMetric) Observe(_ *dynamo.SysState, _ []float64, _ float64) { m.observed = true }

// Value is zero until the first observation.
func (m *VarianceMetric) Value() float64 {
	if !m.observed {
		return 0
	}
	return m.t.PositionVariance()
}

func (m *VarianceMetric) Reset() { m.observed = false }
