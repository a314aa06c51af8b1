// Package units converts between the angle and speed units used by the
// models and their controllers.
package units

import "math"

// RPMToAngularSpeed converts revolutions per minute to rad/s.
func RPMToAngularSpeed(rpm float64) float64 { return 2.0 * math.Pi * rpm / 60.0 }

// AngularSpeedToRPM converts rad/s to revolutions per minute.
func AngularSpeedToRPM(w float64) float64 { return w * 60.0 / (2.0 * math.Pi) }

// AngularToLinearSpeed returns the rim speed of a wheel of radius r spinning at w.
func AngularToLinearSpeed(r, w float64) float64 { return r * w }

func RadToDegrees(rad float64) float64 { return rad * 180.0 / math.Pi }

func DegreesToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
