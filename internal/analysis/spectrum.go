package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: need at least 4 samples")

// Spectrum returns the one-sided amplitude spectrum of samples taken every
// dt seconds. The mean is removed first so bin 0 only holds numerical noise.
func Spectrum(samples []float64, dt float64) (freqs, amps []float64, err error) {
	if len(samples) < 4 {
		return nil, nil, ErrTooShort
	}
	if dt <= 0 {
		return nil, nil, fmt.Errorf("analysis: invalid sample interval %g", dt)
	}

	centred := make([]float64, len(samples))
	copy(centred, samples)
	floats.AddConst(-stat.Mean(samples, nil), centred)

	coeffs := fft.FFTReal(centred)
	n := len(samples)
	half := n/2 + 1
	freqs = make([]float64, half)
	amps = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		amps[k] = 2 * cmplx.Abs(coeffs[k]) / float64(n)
	}
	return freqs, amps, nil
}

// DominantFrequency returns the frequency of the largest non-DC bin, or 0
// for a constant signal.
func DominantFrequency(samples []float64, dt float64) (float64, error) {
	freqs, amps, err := Spectrum(samples, dt)
	if err != nil {
		return 0, err
	}
	peak := floats.MaxIdx(amps[1:]) + 1
	if amps[peak] < 1e-12 {
		return 0, nil
	}
	return freqs[peak], nil
}
