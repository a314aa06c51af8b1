package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"gonum.org/v1/gonum/mat"
)

func hover(speed float64) physics.MotorSpeeds {
	return physics.MotorSpeeds{speed, speed, speed, speed}
}

var _ = Describe("Quadrotor", func() {
	var (
		cfg physics.QuadrotorConfig
		q   *physics.Quadrotor
	)

	BeforeEach(func() {
		cfg = physics.DefaultQuadrotorConfig()
		var err error
		q, err = physics.NewQuadrotor(cfg, physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{}, [3]float64{}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("uses the configured time step", func() {
		Expect(q.TimeStep()).To(Equal(cfg.Dt))
		Expect(q.Config()).To(Equal(cfg))
	})

	Describe("translational dynamics", func() {
		It("balances weight at hover speed", func() {
			speed := cfg.HoverSpeed()
			Expect(cfg.K1 * 4 * speed * speed).To(BeNumerically("~", cfg.Mass*physics.Gravity, 1e-9))

			q.TranslationalDynamics(hover(speed))
			balanced := math.Abs(q.VelocityDot()[2])

			for _, scale := range []float64{0.5, 1.5} {
				other, err := physics.NewQuadrotor(cfg, physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{}, [3]float64{}))
				Expect(err).NotTo(HaveOccurred())
				other.TranslationalDynamics(hover(speed * scale))
				Expect(balanced).To(BeNumerically("<", 1e-3*math.Abs(other.VelocityDot()[2])))
			}
		})

		It("falls with gravity alone", func() {
			q.TranslationalDynamics(physics.MotorSpeeds{})
			Expect(q.VelocityDot()[2]).To(BeNumerically("~", physics.Gravity, 1e-12))

			cfg.UseGravity = false
			still, err := physics.NewQuadrotor(cfg, physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{}, [3]float64{}))
			Expect(err).NotTo(HaveOccurred())
			still.TranslationalDynamics(physics.MotorSpeeds{})
			Expect(still.VelocityDot()).To(Equal([3]float64{}))
		})

		It("subtracts the Coriolis term", func() {
			cfg.UseGravity = false
			state := physics.NewQuadrotorState([3]float64{}, [3]float64{1, 0, 0}, [3]float64{0, 0, 2}, [3]float64{})
			spin, err := physics.NewQuadrotor(cfg, state)
			Expect(err).NotTo(HaveOccurred())

			spin.TranslationalDynamics(physics.MotorSpeeds{})
			// omega x v = (0, r*u, 0)
			Expect(spin.VelocityDot()[1]).To(BeNumerically("~", -2.0, 1e-12))
		})
	})

	Describe("rotational dynamics", func() {
		It("produces no torque at equal motor speeds", func() {
			q.RotationalDynamics(hover(400))
			Expect(q.OmegaDot()).To(Equal([3]float64{}))
		})

		It("rolls and pitches from motor pair differences", func() {
			q.RotationalDynamics(physics.MotorSpeeds{0, 0, 0, 100})
			od := q.OmegaDot()
			Expect(od[0]).To(BeNumerically("~", cfg.L*cfg.K1*1e4/cfg.Jx, 1e-12))
			Expect(od[1]).To(BeNumerically("~", 0.0, 1e-12))
			Expect(od[2]).To(BeNumerically("~", -cfg.K2*1e4/cfg.Jz, 1e-12))

			q2, _ := physics.NewQuadrotor(cfg, physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{}, [3]float64{}))
			q2.RotationalDynamics(physics.MotorSpeeds{100, 0, 0, 0})
			Expect(q2.OmegaDot()[1]).To(BeNumerically("~", cfg.L*cfg.K1*1e4/cfg.Jy, 1e-12))
		})
	})

	Describe("integration", func() {
		// The working vectors are copied back into the state after every
		// step, so reads through the state observe the integration.
		It("writes the step back into the state", func() {
			state, err := q.Evaluate(physics.MotorSpeeds{})
			Expect(err).NotTo(HaveOccurred())

			w, err := state.Get("w")
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeNumerically("~", physics.Gravity*cfg.Dt, 1e-12))
			Expect(q.Velocity()[2]).To(Equal(w))

			z, _ := state.Get("z")
			Expect(z).To(BeNumerically("~", physics.Gravity*cfg.Dt*cfg.Dt, 1e-12))
		})

		It("holds altitude at hover speed", func() {
			for i := 0; i < 100; i++ {
				Expect(q.Integrate(hover(cfg.HoverSpeed()))).To(Succeed())
			}
			Expect(q.Position()[2]).To(BeNumerically("~", 0.0, 1e-9))
			Expect(q.EulerAngles()).To(Equal([3]float64{}))
		})

		It("keeps the rotation matrix orthonormal", func() {
			state := physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{0.3, -0.2, 0.1}, [3]float64{0.1, 0.2, 0.3})
			spin, err := physics.NewQuadrotor(cfg, state)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 10; i++ {
				Expect(spin.Integrate(physics.MotorSpeeds{400, 410, 400, 390})).To(Succeed())
			}

			R := spin.RotationMatrix()
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					dot := 0.0
					for k := 0; k < 3; k++ {
						dot += R.At(i, k) * R.At(j, k)
					}
					want := 0.0
					if i == j {
						want = 1.0
					}
					Expect(dot).To(BeNumerically("~", want, 1e-12))
				}
			}
		})
	})

	It("reads the state without mutating it", func() {
		state := physics.NewQuadrotorState([3]float64{1, 2, 3}, [3]float64{4, 5, 6}, [3]float64{7, 8, 9}, [3]float64{0.1, 0.2, 0.3})
		q, err := physics.NewQuadrotor(cfg, state)
		Expect(err).NotTo(HaveOccurred())

		before := state.Values()
		for i := 0; i < 3; i++ {
			Expect(q.Position()).To(Equal([3]float64{1, 2, 3}))
			Expect(q.Velocity()).To(Equal([3]float64{4, 5, 6}))
			Expect(q.AngularVelocity()).To(Equal([3]float64{7, 8, 9}))
			Expect(q.EulerAngles()).To(Equal([3]float64{0.1, 0.2, 0.3}))
		}
		Expect(state.Values()).To(Equal(before))
	})

	It("requires every state name", func() {
		_, err := physics.NewQuadrotor(cfg, dynamo.NewSysStateWithNames([]string{"x", "y", "z"}, 0))
		Expect(err).To(MatchError(dynamo.ErrInvalidName))
	})

	It("validates only on request", func() {
		bad := cfg
		bad.Mass = 0
		_, err := physics.NewQuadrotor(bad, physics.NewQuadrotorState([3]float64{}, [3]float64{}, [3]float64{}, [3]float64{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(bad.Validate()).To(HaveOccurred())
		Expect(cfg.Validate()).To(Succeed())
	})

	It("exposes its parameters", func() {
		Expect(cfg.SetParam("mass", 1.2)).To(Succeed())
		Expect(cfg.GetParams()["mass"]).To(Equal(1.2))
		Expect(cfg.SetParam("color", 1)).To(HaveOccurred())
	})

	It("builds a pure yaw rotation", func() {
		R := mat.NewDense(3, 3, nil)
		physics.EulerRotation(R, 0, 0, math.Pi/2)
		Expect(R.At(0, 0)).To(BeNumerically("~", 0, 1e-12))
		Expect(R.At(0, 1)).To(BeNumerically("~", -1, 1e-12))
		Expect(R.At(1, 0)).To(BeNumerically("~", 1, 1e-12))
		Expect(R.At(2, 2)).To(BeNumerically("~", 1, 1e-12))
	})
})

var _ = Describe("IsAngle", func() {
	It("accepts the heading and Euler angles only", func() {
		for _, name := range []string{"Theta", "phi", "theta", "psi"} {
			Expect(physics.IsAngle(name)).To(BeTrue(), name)
		}
		for _, name := range []string{"X", "x", "p", "r"} {
			Expect(physics.IsAngle(name)).To(BeFalse(), name)
		}
	})
})
