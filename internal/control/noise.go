package control

import (
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// NoisyDiffDrive adds zero-mean Gaussian samples to the error terms of the
// inputs produced by Inner. Error term 0 perturbs the travelled distance,
// term 1 the heading.
type NoisyDiffDrive struct {
	Inner Controller[physics.DiffDriveInput]
	noise [2]distuv.Normal
}

// NewNoisyDiffDrive draws from one seeded source so runs are repeatable.
func NewNoisyDiffDrive(inner Controller[physics.DiffDriveInput], std [2]float64, seed uint64) *NoisyDiffDrive {
	src := rand.NewSource(seed)
	return &NoisyDiffDrive{
		Inner: inner,
		noise: [2]distuv.Normal{
			{Mu: 0, Sigma: std[0], Src: src},
			{Mu: 0, Sigma: std[1], Src: src},
		},
	}
}

func (n *NoisyDiffDrive) Compute(s *dynamo.SysState, t float64) physics.DiffDriveInput {
	errs := [2]float64{n.sample(0), n.sample(1)}

	switch in := n.Inner.Compute(s, t).(type) {
	case physics.V1Input:
		in.Errors = add(in.Errors, errs)
		return in
	case physics.V2Input:
		in.Errors = add(in.Errors, errs)
		return in
	case physics.V3Input:
		in.Errors = add(in.Errors, errs)
		return in
	default:
		return in
	}
}

// GetParams forwards to Inner when it is Tunable.
func (n *NoisyDiffDrive) GetParams() map[string]float64 {
	if t, ok := n.Inner.(Tunable); ok {
		return t.GetParams()
	}
	return nil
}

func (n *NoisyDiffDrive) SetParam(name string, value float64) {
	if t, ok := n.Inner.(Tunable); ok {
		t.SetParam(name, value)
	}
}

func (n *NoisyDiffDrive) sample(i int) float64 {
	if n.noise[i].Sigma == 0 {
		return 0
	}
	return n.noise[i].Rand()
}

func add(a, b [2]float64) [2]float64 {
	return [2]float64{a[0] + b[0], a[1] + b[1]}
}
