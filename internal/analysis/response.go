package analysis

import (
	"fmt"
	"math"
)

// Response summarizes how a signal approaches a set point.
type Response struct {
	Target float64
	// Overshoot is the largest excursion past Target, relative to the
	// initial distance from it. Zero when the signal never crosses.
	Overshoot float64
	// SettlingTime is the first time after which the signal stays within
	// the band. NaN if it never settles.
	SettlingTime float64
	// SteadyStateError is Target minus the final sample.
	SteadyStateError float64
}

// StepResponse measures samples (taken at times) against target. band is
// the settling tolerance as a fraction of the initial error, e.g. 0.02.
func StepResponse(samples, times []float64, target, band float64) (Response, error) {
	if len(samples) == 0 || len(samples) != len(times) {
		return Response{}, fmt.Errorf("analysis: %d samples with %d times", len(samples), len(times))
	}

	r := Response{Target: target, SettlingTime: math.NaN()}
	initial := target - samples[0]
	r.SteadyStateError = target - samples[len(samples)-1]

	if initial != 0 {
		dir := math.Copysign(1, initial)
		for _, s := range samples {
			if past := dir * (s - target); past > r.Overshoot*math.Abs(initial) {
				r.Overshoot = past / math.Abs(initial)
			}
		}
	}

	tol := band * math.Abs(initial)
	if initial == 0 {
		tol = band
	}
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(samples[i]-target) > tol {
			if i < len(samples)-1 {
				r.SettlingTime = times[i+1]
			}
			return r, nil
		}
	}
	r.SettlingTime = times[0]
	return r, nil
}
