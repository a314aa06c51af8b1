package dynamo

import "gonum.org/v1/gonum/mat"

// DefaultTolerance is the tolerance a model starts with.
const DefaultTolerance = 1e-8

// MotionModel describes the dynamics or kinematics of a rigid body driven
// by inputs of type I.
type MotionModel[I any] interface {
	// Evaluate advances the model by one time step and returns its state.
	Evaluate(input I) (*SysState, error)
	State() *SysState
	TimeStep() float64
}

// Model is the state and configuration shared by every motion model.
// Concrete models embed it.
type Model struct {
	state          *SysState
	matrices       *MatrixDescriptor
	updateMatrices bool
	dt             float64
	tol            float64
}

// NewModel wraps state. Matrix updates are enabled, dt is zero and the
// tolerance is DefaultTolerance.
func NewModel(state *SysState) Model {
	return Model{
		state:          state,
		matrices:       NewMatrixDescriptor(),
		updateMatrices: true,
		tol:            DefaultTolerance,
	}
}

func (m *Model) State() *SysState { return m.state }

func (m *Model) StateNames() []string { return m.state.Names() }

func (m *Model) StateProperty(name string) (float64, error) { return m.state.Get(name) }

func (m *Model) SetStateProperty(name string, v float64) error { return m.state.Set(name, v) }

func (m *Model) SetStateNameValue(i int, name string, v float64) {
	m.state.SetEntry(i, Entry{Name: name, Value: v})
}

func (m *Model) Descriptor() *MatrixDescriptor { return m.matrices }

func (m *Model) Matrix(name string) (*mat.Dense, error) { return m.matrices.Matrix(name) }

func (m *Model) SetMatrix(name string, mx mat.Matrix) { m.matrices.SetMatrix(name, mx) }

func (m *Model) HasMatrix(name string) bool { return m.matrices.HasMatrix(name) }

func (m *Model) Vector(name string) (*mat.VecDense, error) { return m.matrices.Vector(name) }

func (m *Model) SetVector(name string, v mat.Vector) { m.matrices.SetVector(name, v) }

// SetMatrixUpdateFlag controls whether matrices are refreshed on every evaluation.
func (m *Model) SetMatrixUpdateFlag(f bool) { m.updateMatrices = f }

func (m *Model) AllowsMatrixUpdates() bool { return m.updateMatrices }

func (m *Model) SetTimeStep(dt float64) { m.dt = dt }

func (m *Model) TimeStep() float64 { return m.dt }

func (m *Model) SetTolerance(tol float64) { m.tol = tol }

func (m *Model) Tolerance() float64 { return m.tol }
