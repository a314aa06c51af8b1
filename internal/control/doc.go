// Package control provides the input sources that drive the motion models.
//
// A [Controller] computes the next model input from the current state and
// time:
//
//   - [Constant]: the same input every step
//   - [MotorSchedule]: a time-varying equal speed on all four quadrotor motors
//   - [AltitudeHold]: PID on quadrotor altitude, equal motor speeds around hover
//   - [WheelSpeeds]: V3 wheel speeds for a commanded linear and angular velocity
//   - [HeadingHold]: state feedback on the DiffDrive heading
//
// # Usage
//
//	pid := control.NewAltitudeHold(cfg, 2.0, 1.5, 0.2, 1.0) // Kp, Ki, Kd, target
//	s := sim.New[physics.MotorSpeeds](quad, pid)
//	// Controller.Compute is called each timestep
//
// Controllers implementing [Tunable] can be retuned while a run is live;
// the live view lists their parameters.
package control
