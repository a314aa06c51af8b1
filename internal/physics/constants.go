package physics

const (
	// Gravity is the gravitational acceleration in m/s^2.
	Gravity = 9.81
)

// IsAngle reports whether name is a DiffDrive or Quadrotor state variable
// measured in radians.
func IsAngle(name string) bool {
	switch name {
	case "Theta", "phi", "theta", "psi":
		return true
	}
	return false
}
