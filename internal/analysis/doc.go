// Package analysis characterizes recorded trajectories.
//
//   - [Spectrum]: one-sided amplitude spectrum of a uniformly sampled signal
//   - [DominantFrequency]: strongest non-DC frequency, for spotting oscillation
//   - [StepResponse]: overshoot, settling time and steady-state error of a
//     signal approaching a set point
//
// A heading or altitude controller that rings shows up as a sharp peak:
//
//	f, err := analysis.DominantFrequency(theta, dt)
//	if err == nil && f > 0 {
//	    period := 1 / f
//	}
package analysis
