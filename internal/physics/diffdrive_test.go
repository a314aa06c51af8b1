package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

const eps = 1e-12

var _ = Describe("DiffDrive", func() {
	Describe("V1", func() {
		It("moves half the distance along the heading when w is zero", func() {
			d := physics.NewDiffDrive(physics.V1, false)
			d.SetTimeStep(1.0)

			Expect(d.Integrate(physics.V1Input{V: 1.0})).To(Succeed())
			Expect(d.X()).To(BeNumerically("~", 0.5, eps))
			Expect(d.Y()).To(BeNumerically("~", 0.0, eps))
			Expect(d.Orientation()).To(BeNumerically("~", 0.0, eps))
		})

		It("advances a resting robot by 0.0125 with v=0.05 and dt=0.5", func() {
			d := physics.NewDiffDrive(physics.V1, true)
			d.SetTimeStep(0.5)
			in := physics.V1Input{V: 0.05}
			Expect(d.InitializeMatrices(in)).To(Succeed())

			state, err := d.Evaluate(in)
			Expect(err).NotTo(HaveOccurred())
			x, _ := state.Get("X")
			y, _ := state.Get("Y")
			theta, _ := state.Get("Theta")
			Expect(x).To(BeNumerically("~", 0.0125, eps))
			Expect(y).To(BeNumerically("~", 0.0, eps))
			Expect(theta).To(BeNumerically("~", 0.0, eps))
			Expect(d.Velocity()).To(Equal(0.05))
			Expect(d.AngularVelocity()).To(Equal(0.0))
		})

		It("follows the arc terms when w exceeds the tolerance", func() {
			d := physics.NewDiffDrive(physics.V1, false)
			d.SetTimeStep(0.5)
			d.SetOrientation(0.3)

			v, w := 1.0, 0.4
			Expect(d.Integrate(physics.V1Input{V: v, W: w})).To(Succeed())

			newTheta := 0.3 + w*0.5
			k := v / (2 * w)
			Expect(d.Orientation()).To(BeNumerically("~", newTheta, eps))
			Expect(d.X()).To(BeNumerically("~", k*(math.Sin(0.3)-math.Sin(newTheta)), eps))
			Expect(d.Y()).To(BeNumerically("~", -k*(math.Cos(0.3)-math.Cos(newTheta)), eps))
		})

		It("pins the heading to pi when it already exceeds pi", func() {
			state := dynamo.NewSysStateWithNames(physics.DiffDriveStateNames, 0)
			state.SetAt(2, 3.5)

			next := physics.IntegrateStateV1(state, dynamo.DefaultTolerance, 0.1, 1.0, 1.0, [2]float64{})
			Expect(next.At(2)).To(Equal(math.Pi))

			state.SetAt(2, -3.5)
			next = physics.IntegrateStateV1(state, dynamo.DefaultTolerance, 0.1, 1.0, 1.0, [2]float64{})
			Expect(next.At(2)).To(Equal(-math.Pi))
		})

		It("does not pin a heading lying on the bound", func() {
			state := dynamo.NewSysStateWithNames(physics.DiffDriveStateNames, 0)
			state.SetAt(2, math.Pi)

			next := physics.IntegrateStateV1(state, dynamo.DefaultTolerance, 0.1, 1.0, 1.0, [2]float64{})
			Expect(next.At(2)).To(BeNumerically("~", math.Pi+0.1, eps))
		})

		It("adds the error terms to distance and heading", func() {
			state := dynamo.NewSysStateWithNames(physics.DiffDriveStateNames, 0)
			next := physics.IntegrateStateV1(state, dynamo.DefaultTolerance, 1.0, 1.0, 0.0, [2]float64{0.5, math.Pi / 2})
			Expect(next.At(0)).To(BeNumerically("~", 0.0, eps))
			Expect(next.At(1)).To(BeNumerically("~", 1.0, eps))
		})
	})

	Describe("V2", func() {
		It("moves the full distance and turns by w*dt", func() {
			d := physics.NewDiffDrive(physics.V2, false)
			d.SetTimeStep(1.0)

			Expect(d.Integrate(physics.V2Input{V: 1.0})).To(Succeed())
			Expect(d.X()).To(BeNumerically("~", 1.0, eps))

			Expect(d.Integrate(physics.V2Input{V: 0, W: 0.25})).To(Succeed())
			Expect(d.Orientation()).To(BeNumerically("~", 0.25, eps))
		})
	})

	Describe("V3", func() {
		DescribeTable("symmetric wheel speeds keep the heading",
			func(theta, omega, r, l float64) {
				d := physics.NewDiffDrive(physics.V3, false)
				d.SetTimeStep(1.0)
				d.SetOrientation(theta)

				in := physics.V3Input{W1: omega, W2: omega, R: r, L: l}
				Expect(d.Integrate(in)).To(Succeed())
				Expect(d.Orientation()).To(BeNumerically("~", theta, eps))
				Expect(d.X()).To(BeNumerically("~", r*omega*math.Cos(theta), 1e-9))
				Expect(d.Y()).To(BeNumerically("~", r*omega*math.Sin(theta), 1e-9))
				Expect(d.Velocity()).To(BeNumerically("~", r*omega, 1e-9))
				Expect(d.AngularVelocity()).To(Equal(0.0))
			},
			Entry("forward", 0.0, 2.0, 0.1, 0.25),
			Entry("diagonal", math.Pi/4, 1.5, 0.05, 0.2),
			Entry("reverse heading", math.Pi, 3.0, 0.2, 0.5),
		)

		It("turns by r(w1-w2)/(2l)", func() {
			state := dynamo.NewSysStateWithNames(physics.DiffDriveStateNames, 0)
			next := physics.IntegrateStateV3(state, 0.1, 0.5, 1.0, 2.0, 1.0, [2]float64{})
			Expect(next.At(2)).To(BeNumerically("~", 0.1, eps))
			Expect(state.At(2)).To(Equal(0.0))
		})
	})

	Describe("inputs", func() {
		It("rejects an input of another version", func() {
			d := physics.NewDiffDrive(physics.V1, false)
			err := d.Integrate(physics.V2Input{V: 1})
			Expect(err).To(MatchError(physics.ErrVersionMismatch))
			Expect(d.X()).To(Equal(0.0))
		})

		It("names the missing property", func() {
			d := physics.NewDiffDrive(physics.V3, false)
			err := d.IntegrateInput(dynamo.Input{
				"errors": []float64{0, 0},
				"w1":     1.0,
				"w2":     1.0,
				"r":      0.1,
			})
			Expect(err).To(MatchError(dynamo.ErrMissingInput))
			Expect(err.Error()).To(ContainSubstring("property l not found"))
		})

		It("integrates from named properties", func() {
			d := physics.NewDiffDrive(physics.V2, false)
			d.SetTimeStep(0.5)
			Expect(d.IntegrateInput(dynamo.Input{"v": 2.0, "w": 0.0, "errors": [2]float64{}})).To(Succeed())
			Expect(d.X()).To(BeNumerically("~", 1.0, eps))
		})

		It("resolves dt and tol in the detached form", func() {
			state := dynamo.NewSysStateWithNames(physics.DiffDriveStateNames, 0)
			in := dynamo.Input{"v": 1.0, "w": 0.0, "errors": []any{0, 0}, "dt": 1.0}

			_, err := physics.IntegrateState(state, in, physics.V1)
			Expect(err).To(MatchError(dynamo.ErrMissingInput))

			in["tol"] = 1e-6
			next, err := physics.IntegrateState(state, in, physics.V1)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.At(0)).To(BeNumerically("~", 0.5, eps))
			Expect(state.At(0)).To(Equal(0.0))
		})

		It("parses version names", func() {
			for s, want := range map[string]physics.DynamicVersion{"v1": physics.V1, "V2": physics.V2, "3": physics.V3} {
				got, err := physics.ParseDynamicVersion(s)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}
			_, err := physics.ParseDynamicVersion("v4")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Jacobians", func() {
		It("requires F and L to be registered", func() {
			d := physics.NewDiffDrive(physics.V1, true)
			in := physics.V1Input{V: 1.0, W: 0.5}

			Expect(d.UpdateMatrices(in)).To(MatchError(dynamo.ErrMatrixNotFound))
			Expect(d.Integrate(in)).To(MatchError(dynamo.ErrMatrixNotFound))

			Expect(d.InitializeMatrices(in)).To(Succeed())
			Expect(d.UpdateMatrices(in)).To(Succeed())

			F, err := d.Matrix("F")
			Expect(err).NotTo(HaveOccurred())
			r, c := F.Dims()
			Expect([]int{r, c}).To(Equal([]int{3, 3}))

			L, err := d.Matrix("L")
			Expect(err).NotTo(HaveOccurred())
			r, c = L.Dims()
			Expect([]int{r, c}).To(Equal([]int{3, 2}))
		})

		It("fills the straight-line branch", func() {
			d := physics.NewDiffDrive(physics.V1, true)
			d.SetTimeStep(1.0)
			Expect(d.InitializeMatrices(physics.V1Input{V: 2.0})).To(Succeed())

			F, _ := d.Matrix("F")
			L, _ := d.Matrix("L")
			// distance 1, heading 0
			Expect(F.At(0, 0)).To(Equal(1.0))
			Expect(F.At(0, 2)).To(BeNumerically("~", 0.0, eps))
			Expect(F.At(1, 2)).To(BeNumerically("~", -1.0, eps))
			Expect(F.At(2, 2)).To(Equal(1.0))
			Expect(L.At(0, 0)).To(BeNumerically("~", 1.0, eps))
			Expect(L.At(1, 1)).To(BeNumerically("~", -1.0, eps))
			Expect(L.At(2, 1)).To(Equal(1.0))
		})

		It("fills the turning branch", func() {
			d := physics.NewDiffDrive(physics.V1, true)
			d.SetTimeStep(1.0)
			v, w := 2.0, 0.5
			Expect(d.InitializeMatrices(physics.V1Input{V: v, W: w})).To(Succeed())

			F, _ := d.Matrix("F")
			L, _ := d.Matrix("L")
			de := 0.5 * v
			Expect(F.At(0, 2)).To(BeNumerically("~", -de*math.Cos(w)+de, eps))
			Expect(F.At(1, 2)).To(BeNumerically("~", -de*math.Sin(w), eps))
			Expect(L.At(0, 0)).To(BeNumerically("~", math.Sin(w), eps))
			Expect(L.At(0, 1)).To(BeNumerically("~", -(v/2*w)*math.Cos(w)*math.Sin(w), eps))
			Expect(L.At(1, 0)).To(BeNumerically("~", 1-math.Cos(w), eps))
			Expect(L.At(1, 1)).To(BeNumerically("~", (v/2*w)*math.Sin(w), eps))
			Expect(L.At(2, 0)).To(Equal(0.0))
		})
	})

	It("accepts only three-dimensional states", func() {
		_, err := physics.NewDiffDriveFromState(physics.V2, dynamo.NewUnnamedSysState(4))
		Expect(err).To(MatchError(dynamo.ErrSizeMismatch))

		d, err := physics.NewDiffDriveFromState(physics.V2, dynamo.NewSysStateWithNames(physics.DiffDriveStateNames, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.X()).To(Equal(1.0))
		Expect(d.Version()).To(Equal(physics.V2))
	})
})
