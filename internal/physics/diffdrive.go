package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// DiffDriveStateNames are the state variables of a DiffDrive, in slot order.
var DiffDriveStateNames = []string{"X", "Y", "Theta"}

var headingBounds = r1.Interval{Min: -math.Pi, Max: math.Pi}

// DiffDrive integrates the planar pose of a differential-drive vehicle.
type DiffDrive struct {
	dynamo.Model
	v, w    float64
	version DynamicVersion
}

// NewDiffDrive returns a vehicle at the origin. When updateMatrices is
// false the Jacobians are not refreshed on Integrate.
func NewDiffDrive(version DynamicVersion, updateMatrices bool) *DiffDrive {
	d := &DiffDrive{
		Model:   dynamo.NewModel(dynamo.NewSysStateWithNames(DiffDriveStateNames, 0)),
		version: version,
	}
	d.SetMatrixUpdateFlag(updateMatrices)
	return d
}

// NewDiffDriveFromState takes ownership of a 3-dimensional state.
func NewDiffDriveFromState(version DynamicVersion, state *dynamo.SysState) (*DiffDrive, error) {
	if state.Size() != len(DiffDriveStateNames) {
		return nil, fmt.Errorf("%w: %d should be %d", dynamo.ErrSizeMismatch, state.Size(), len(DiffDriveStateNames))
	}
	return &DiffDrive{Model: dynamo.NewModel(state), version: version}, nil
}

func (d *DiffDrive) Version() DynamicVersion { return d.version }

func (d *DiffDrive) X() float64 { return d.State().At(0) }
func (d *DiffDrive) SetX(x float64) { d.State().SetAt(0, x) }
func (d *DiffDrive) Y() float64 { return d.State().At(1) }
func (d *DiffDrive) SetY(y float64) { d.State().SetAt(1, y) }
func (d *DiffDrive) Orientation() float64 { return d.State().At(2) }
func (d *DiffDrive) SetOrientation(t float64) { d.State().SetAt(2, t) }

// Velocity returns the linear velocity used by the last integration.
func (d *DiffDrive) Velocity() float64 { return d.v }

// AngularVelocity returns the angular velocity used by the last integration.
func (d *DiffDrive) AngularVelocity() float64 { return d.w }

// Evaluate integrates one step and returns the updated state.
func (d *DiffDrive) Evaluate(in DiffDriveInput) (*dynamo.SysState, error) {
	if err := d.Integrate(in); err != nil {
		return nil, err
	}
	return d.State(), nil
}

// Integrate advances the pose by one time step. Matrices, when enabled,
// are refreshed from the pre-step state.
func (d *DiffDrive) Integrate(in DiffDriveInput) error {
	if in.Version() != d.version {
		return fmt.Errorf("%w: model %s, input %s", ErrVersionMismatch, d.version, in.Version())
	}

	if d.AllowsMatrixUpdates() {
		if err := d.UpdateMatrices(in); err != nil {
			return err
		}
	}

	var next *dynamo.SysState
	switch in := in.(type) {
	case V1Input:
		next = IntegrateStateV1(d.State(), d.Tolerance(), d.TimeStep(), in.V, in.W, in.Errors)
	case V2Input:
		next = IntegrateStateV2(d.State(), d.TimeStep(), in.V, in.W, in.Errors)
	case V3Input:
		next = IntegrateStateV3(d.State(), in.R, in.L, d.TimeStep(), in.W1, in.W2, in.Errors)
	}
	if err := d.State().CopyFrom(next); err != nil {
		return err
	}

	d.v, d.w = in.Velocities()
	return nil
}

// IntegrateInput resolves a typed input from named properties and integrates it.
func (d *DiffDrive) IntegrateInput(in dynamo.Input) error {
	typed, err := ResolveDiffDriveInput(d.version, in)
	if err != nil {
		return err
	}
	return d.Integrate(typed)
}

// InitializeMatrices registers zero F (3x3) and L (3x2) when absent, turns
// matrix updates on and fills both matrices.
func (d *DiffDrive) InitializeMatrices(in DiffDriveInput) error {
	d.SetMatrixUpdateFlag(true)

	if !d.HasMatrix("F") {
		d.SetMatrix("F", mat.NewDense(3, 3, nil))
	}
	if !d.HasMatrix("L") {
		d.SetMatrix("L", mat.NewDense(3, 2, nil))
	}
	return d.UpdateMatrices(in)
}

// UpdateMatrices recomputes F = d(state)/d(state) and L = d(state)/d(errors)
// at the current state. Both must already be registered.
func (d *DiffDrive) UpdateMatrices(in DiffDriveInput) error {
	F, err := d.Matrix("F")
	if err != nil {
		return err
	}
	L, err := d.Matrix("L")
	if err != nil {
		return err
	}

	v, w := in.Velocities()
	errs := in.ErrorTerms()
	dt := d.TimeStep()

	distance := 0.5 * v * dt
	orientation := w * dt
	theta := d.State().At(2)
	arg := theta + orientation + errs[1]
	de := distance + errs[0]

	if math.Abs(w) < d.Tolerance() {
		F.Set(0, 0, 1.0)
		F.Set(0, 1, 0.0)
		F.Set(0, 2, de*math.Sin(arg))

		F.Set(1, 0, 0.0)
		F.Set(1, 1, 1.0)
		F.Set(1, 2, -de*math.Cos(arg))

		F.Set(2, 0, 0.0)
		F.Set(2, 1, 0.0)
		F.Set(2, 2, 1.0)

		L.Set(0, 0, math.Cos(arg))
		L.Set(0, 1, de*math.Sin(arg))

		L.Set(1, 0, math.Sin(arg))
		L.Set(1, 1, -de*math.Cos(arg))

		L.Set(2, 0, 0.0)
		L.Set(2, 1, 1.0)
		return nil
	}

	F.Set(0, 0, 1.0)
	F.Set(0, 1, 0.0)
	F.Set(0, 2, -de*math.Cos(arg)+de*math.Cos(theta))

	F.Set(1, 0, 0.0)
	F.Set(1, 1, 1.0)
	F.Set(1, 2, -de*math.Sin(arg)+de*math.Sin(theta))

	F.Set(2, 0, 0.0)
	F.Set(2, 1, 0.0)
	F.Set(2, 2, 1.0)

	// v/2*w is (v/2)*w, not v/(2w).
	k := v/2.0*w + errs[0]
	L.Set(0, 0, math.Sin(arg)-math.Sin(theta))
	L.Set(0, 1, -k*math.Cos(arg)*math.Sin(arg))

	L.Set(1, 0, -math.Cos(arg)+math.Cos(theta))
	L.Set(1, 1, k*math.Sin(arg))

	L.Set(2, 0, 0.0)
	L.Set(2, 1, 1.0)
	return nil
}

// IntegrateStateV1 applies the V1 law to a copy of state.
//
// For |w| < tol the vehicle moves 0.5*v*dt along its heading. Otherwise the
// heading advances by w*dt + e1 (pinned to +/-pi when the previous heading
// was already outside that range) and x, y follow the arc terms computed
// from the previous and the advanced, unpinned heading.
func IntegrateStateV1(state *dynamo.SysState, tol, dt, v, w float64, errs [2]float64) *dynamo.SysState {
	other := state.Clone()
	theta := state.At(2)

	if math.Abs(w) < tol {
		distance := 0.5 * v * dt
		other.AddAt(0, (distance+errs[0])*math.Cos(theta+errs[1]))
		other.AddAt(1, (distance+errs[0])*math.Sin(theta+errs[1]))
		return other
	}

	advanced := theta + w*dt + errs[1]
	other.SetAt(2, advanced)
	if theta < headingBounds.Min || theta > headingBounds.Max {
		other.SetAt(2, sign(theta)*math.Pi)
	}

	k := v/(2.0*w) + errs[0]
	other.AddAt(0, k*(math.Sin(theta)-math.Sin(advanced)))
	other.AddAt(1, -k*(math.Cos(theta)-math.Cos(advanced)))
	return other
}

// IntegrateStateV2 applies the V2 law to a copy of state.
func IntegrateStateV2(state *dynamo.SysState, dt, v, w float64, errs [2]float64) *dynamo.SysState {
	theta := state.At(2)
	distance := v * dt

	other := state.Clone()
	other.AddAt(0, (distance+errs[0])*math.Cos(theta+errs[1]))
	other.AddAt(1, (distance+errs[0])*math.Sin(theta+errs[1]))
	other.AddAt(2, dt*w)
	return other
}

// IntegrateStateV3 applies the V3 law to a copy of state. r is the wheel
// radius and l the half axle length.
func IntegrateStateV3(state *dynamo.SysState, r, l, dt, w1, w2 float64, errs [2]float64) *dynamo.SysState {
	theta := state.At(2)
	scale := dt * 0.5 * r * (w1 + w2 + errs[0])

	other := state.Clone()
	other.AddAt(0, scale*math.Cos(theta+errs[1]))
	other.AddAt(1, scale*math.Sin(theta+errs[1]))
	other.AddAt(2, dt*r*(w1-w2)/(2.0*l))
	return other
}

// IntegrateState resolves the inputs of version, including dt (and tol for
// V1), from named properties and applies the matching law to a copy of state.
func IntegrateState(state *dynamo.SysState, in dynamo.Input, version DynamicVersion) (*dynamo.SysState, error) {
	typed, err := ResolveDiffDriveInput(version, in)
	if err != nil {
		return nil, err
	}
	dt, err := dynamo.Resolve[float64]("dt", in)
	if err != nil {
		return nil, err
	}

	switch typed := typed.(type) {
	case V1Input:
		tol, err := dynamo.Resolve[float64]("tol", in)
		if err != nil {
			return nil, err
		}
		return IntegrateStateV1(state, tol, dt, typed.V, typed.W, typed.Errors), nil
	case V2Input:
		return IntegrateStateV2(state, dt, typed.V, typed.W, typed.Errors), nil
	case V3Input:
		return IntegrateStateV3(state, typed.R, typed.L, dt, typed.W1, typed.W2, typed.Errors), nil
	}
	return nil, fmt.Errorf("unknown dynamics version: %s", version)
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
