package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// QuadrotorStateNames are the 12 state variables of a Quadrotor: inertial
// position, body-frame velocity, body rates and Euler angles.
var QuadrotorStateNames = []string{
	"x", "y", "z",
	"u", "v", "w",
	"p", "q", "r",
	"phi", "theta", "psi",
}

// QuadrotorConfig holds the physical parameters of a Quadrotor.
type QuadrotorConfig struct {
	UseGravity bool    `yaml:"use_gravity" json:"use_gravity"`
	Mass       float64 `yaml:"mass" json:"mass"`
	L          float64 `yaml:"l" json:"l"`
	K1         float64 `yaml:"k_1" json:"k_1"`
	K2         float64 `yaml:"k_2" json:"k_2"`
	Dt         float64 `yaml:"dt" json:"dt"`
	Jx         float64 `yaml:"jx" json:"jx"`
	Jy         float64 `yaml:"jy" json:"jy"`
	Jz         float64 `yaml:"jz" json:"jz"`
}

// DefaultQuadrotorConfig returns the parameters of a 0.468 kg airframe.
func DefaultQuadrotorConfig() QuadrotorConfig {
	return QuadrotorConfig{
		UseGravity: true,
		Mass:       0.468,
		L:          0.225,
		K1:         2.98e-6,
		K2:         1.14e-7,
		Dt:         0.001,
		Jx:         4.856e-3,
		Jy:         4.856e-3,
		Jz:         8.801e-3,
	}
}

// Validate rejects parameters that would make the dynamics divide by zero.
// The Quadrotor itself does not call it.
func (c QuadrotorConfig) Validate() error {
	var errs []error
	if c.Mass <= 0 {
		errs = append(errs, fmt.Errorf("mass must be positive, got %g", c.Mass))
	}
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	for _, j := range []struct {
		name string
		val  float64
	}{{"jx", c.Jx}, {"jy", c.Jy}, {"jz", c.Jz}} {
		if j.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %g", j.name, j.val))
		}
	}
	return errors.Join(errs...)
}

// HoverSpeed is the equal motor speed at which total thrust balances weight.
func (c QuadrotorConfig) HoverSpeed() float64 {
	if c.K1 <= 0 {
		return 0
	}
	return math.Sqrt(c.Mass * Gravity / (4 * c.K1))
}

func (c QuadrotorConfig) GetParams() map[string]float64 {
	return map[string]float64{
		"mass": c.Mass,
		"l":    c.L,
		"k_1":  c.K1,
		"k_2":  c.K2,
		"dt":   c.Dt,
		"jx":   c.Jx,
		"jy":   c.Jy,
		"jz":   c.Jz,
	}
}

func (c *QuadrotorConfig) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		c.Mass = value
	case "l":
		c.L = value
	case "k_1":
		c.K1 = value
	case "k_2":
		c.K2 = value
	case "dt":
		c.Dt = value
	case "jx":
		c.Jx = value
	case "jy":
		c.Jy = value
	case "jz":
		c.Jz = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// MotorSpeeds are the four motor angular speeds in rad/s. Motors 1 and 3
// sit on the body x axis, 2 and 4 on the y axis.
type MotorSpeeds [4]float64

func (m MotorSpeeds) Values() []float64 { return m[:] }

func (m MotorSpeeds) squared() [4]float64 {
	return [4]float64{m[0] * m[0], m[1] * m[1], m[2] * m[2], m[3] * m[3]}
}

// NewQuadrotorState builds the 12-entry state from position, body velocity,
// body rates and Euler angles.
func NewQuadrotorState(pos, vel, omega, euler [3]float64) *dynamo.SysState {
	s := dynamo.NewSysStateWithNames(QuadrotorStateNames, 0)
	for i := 0; i < 3; i++ {
		s.SetAt(i, pos[i])
		s.SetAt(3+i, vel[i])
		s.SetAt(6+i, omega[i])
		s.SetAt(9+i, euler[i])
	}
	return s
}

// Quadrotor integrates the 6-DOF rigid-body motion of a quadrotor driven by
// its four motor speeds.
//
// Velocity, body rates and Euler angles evolve in working vectors. At the end
// of each Integrate call the working vectors and the new position are copied
// into the state, so Evaluate and the read accessors see the step.
type Quadrotor struct {
	dynamo.Model
	cfg QuadrotorConfig

	idx [12]int

	oldV, vDot         *mat.VecDense
	oldOmega, omegaDot *mat.VecDense
	euler, eulerDot    *mat.VecDense
	position           *mat.VecDense
	rotation           *mat.Dense
}

// NewQuadrotor takes ownership of state, which must carry every name in
// QuadrotorStateNames. The config is not validated.
func NewQuadrotor(cfg QuadrotorConfig, state *dynamo.SysState) (*Quadrotor, error) {
	q := &Quadrotor{
		Model:    dynamo.NewModel(state),
		cfg:      cfg,
		oldV:     mat.NewVecDense(3, nil),
		vDot:     mat.NewVecDense(3, nil),
		oldOmega: mat.NewVecDense(3, nil),
		omegaDot: mat.NewVecDense(3, nil),
		euler:    mat.NewVecDense(3, nil),
		eulerDot: mat.NewVecDense(3, nil),
		position: mat.NewVecDense(3, nil),
		rotation: mat.NewDense(3, 3, nil),
	}

	names := state.Names()
	for i, want := range QuadrotorStateNames {
		found := -1
		for j, n := range names {
			if n == want {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, &dynamo.NameError{Name: want, Valid: names}
		}
		q.idx[i] = found
	}

	q.SetTimeStep(cfg.Dt)
	q.SetMatrixUpdateFlag(false)
	q.loadCaches()
	q.updateRotationMatrix()
	return q, nil
}

func (q *Quadrotor) Config() QuadrotorConfig { return q.cfg }

func (q *Quadrotor) loadCaches() {
	s := q.State()
	for i := 0; i < 3; i++ {
		q.position.SetVec(i, s.At(q.idx[i]))
		q.oldV.SetVec(i, s.At(q.idx[3+i]))
		q.oldOmega.SetVec(i, s.At(q.idx[6+i]))
		q.euler.SetVec(i, s.At(q.idx[9+i]))
	}
}

func (q *Quadrotor) storeCaches() {
	s := q.State()
	for i := 0; i < 3; i++ {
		s.SetAt(q.idx[i], q.position.AtVec(i))
		s.SetAt(q.idx[3+i], q.oldV.AtVec(i))
		s.SetAt(q.idx[6+i], q.oldOmega.AtVec(i))
		s.SetAt(q.idx[9+i], q.euler.AtVec(i))
	}
}

// Evaluate integrates one step and returns the updated state.
func (q *Quadrotor) Evaluate(motors MotorSpeeds) (*dynamo.SysState, error) {
	if err := q.Integrate(motors); err != nil {
		return nil, err
	}
	return q.State(), nil
}

// Integrate advances the quadrotor by one time step.
func (q *Quadrotor) Integrate(motors MotorSpeeds) error {
	q.TranslationalDynamics(motors)
	q.RotationalDynamics(motors)
	q.updateEulerAngles()
	q.updateRotationMatrix()
	q.updatePosition()
	q.storeCaches()
	return nil
}

// TranslationalDynamics updates the body-frame velocity from gravity, the
// collective thrust along body z and the Coriolis term.
func (q *Quadrotor) TranslationalDynamics(motors MotorSpeeds) {
	m := q.cfg.Mass
	phi, theta := q.euler.AtVec(0), q.euler.AtVec(1)

	var fg [3]float64
	if q.cfg.UseGravity {
		fg = [3]float64{
			-m * Gravity * math.Sin(theta),
			m * Gravity * math.Cos(theta) * math.Sin(phi),
			m * Gravity * math.Cos(theta) * math.Cos(phi),
		}
	}

	w2 := motors.squared()
	thrust := q.cfg.K1 * (w2[0] + w2[1] + w2[2] + w2[3])

	u, v, w := q.oldV.AtVec(0), q.oldV.AtVec(1), q.oldV.AtVec(2)
	p, qq, r := q.oldOmega.AtVec(0), q.oldOmega.AtVec(1), q.oldOmega.AtVec(2)
	coriolis := [3]float64{qq*w - r*v, r*u - p*w, p*v - qq*u}

	q.vDot.SetVec(0, fg[0]/m-coriolis[0])
	q.vDot.SetVec(1, fg[1]/m-coriolis[1])
	q.vDot.SetVec(2, fg[2]/m-thrust/m-coriolis[2])

	q.oldV.AddScaledVec(q.oldV, q.TimeStep(), q.vDot)
}

// RotationalDynamics updates the body rates from the gyroscopic cross term
// and the motor torques.
func (q *Quadrotor) RotationalDynamics(motors MotorSpeeds) {
	c := q.cfg
	p, qq, r := q.oldOmega.AtVec(0), q.oldOmega.AtVec(1), q.oldOmega.AtVec(2)

	gyro := [3]float64{
		((c.Jy - c.Jz) / c.Jx) * qq * r,
		((c.Jz - c.Jx) / c.Jy) * p * r,
		((c.Jx - c.Jy) / c.Jz) * p * qq,
	}

	w2 := motors.squared()
	tau := [3]float64{
		c.L * c.K1 * (w2[3] - w2[1]),
		c.L * c.K1 * (w2[0] - w2[2]),
		c.K2 * (w2[0] - w2[1] + w2[2] - w2[3]),
	}

	q.omegaDot.SetVec(0, gyro[0]+tau[0]/c.Jx)
	q.omegaDot.SetVec(1, gyro[1]+tau[1]/c.Jy)
	q.omegaDot.SetVec(2, gyro[2]+tau[2]/c.Jz)

	q.oldOmega.AddScaledVec(q.oldOmega, q.TimeStep(), q.omegaDot)
}

func (q *Quadrotor) updateEulerAngles() {
	phi, theta := q.euler.AtVec(0), q.euler.AtVec(1)
	sphi, cphi := math.Sincos(phi)
	ttheta, ctheta := math.Tan(theta), math.Cos(theta)

	t := mat.NewDense(3, 3, []float64{
		1, sphi * ttheta, cphi * ttheta,
		0, cphi, -sphi,
		0, sphi / ctheta, cphi / ctheta,
	})
	q.eulerDot.MulVec(t, q.oldOmega)
	q.euler.AddScaledVec(q.euler, q.TimeStep(), q.eulerDot)
}

func (q *Quadrotor) updateRotationMatrix() {
	EulerRotation(q.rotation, q.euler.AtVec(0), q.euler.AtVec(1), q.euler.AtVec(2))
}

// EulerRotation writes the Z-Y-X body-to-inertial rotation for roll phi,
// pitch theta and yaw psi into dst, which must be 3x3.
func EulerRotation(dst *mat.Dense, phi, theta, psi float64) {
	sphi, cphi := math.Sincos(phi)
	stheta, ctheta := math.Sincos(theta)
	spsi, cpsi := math.Sincos(psi)

	dst.SetRow(0, []float64{
		cpsi * ctheta,
		cpsi*stheta*sphi - spsi*cphi,
		cpsi*stheta*cphi + spsi*sphi,
	})
	dst.SetRow(1, []float64{
		spsi * ctheta,
		spsi*stheta*sphi + cpsi*cphi,
		spsi*stheta*cphi - cpsi*sphi,
	})
	dst.SetRow(2, []float64{
		-stheta,
		ctheta * sphi,
		ctheta * cphi,
	})
}

func (q *Quadrotor) updatePosition() {
	var delta mat.VecDense
	delta.MulVec(q.rotation, q.oldV)
	q.position.AddScaledVec(q.position, q.TimeStep(), &delta)
}

func (q *Quadrotor) read(offset int) [3]float64 {
	s := q.State()
	return [3]float64{s.At(q.idx[offset]), s.At(q.idx[offset+1]), s.At(q.idx[offset+2])}
}

// Position returns x, y, z from the state.
func (q *Quadrotor) Position() [3]float64 { return q.read(0) }

// Velocity returns the body-frame u, v, w from the state.
func (q *Quadrotor) Velocity() [3]float64 { return q.read(3) }

// AngularVelocity returns the body rates p, q, r from the state.
func (q *Quadrotor) AngularVelocity() [3]float64 { return q.read(6) }

// EulerAngles returns phi, theta, psi from the state.
func (q *Quadrotor) EulerAngles() [3]float64 { return q.read(9) }

func (q *Quadrotor) VelocityDot() [3]float64 { return vec3(q.vDot) }
func (q *Quadrotor) OmegaDot() [3]float64 { return vec3(q.omegaDot) }
func (q *Quadrotor) EulerDot() [3]float64 { return vec3(q.eulerDot) }

// RotationMatrix returns a copy of the body-to-inertial rotation.
func (q *Quadrotor) RotationMatrix() *mat.Dense { return mat.DenseCopyOf(q.rotation) }

func vec3(v *mat.VecDense) [3]float64 {
	return [3]float64{v.AtVec(0), v.AtVec(1), v.AtVec(2)}
}
