// Package physics provides the concrete rigid-body motion models.
//
// Each model embeds [dynamo.Model] and implements [dynamo.MotionModel]:
//
//   - [DiffDrive]: planar (x, y, theta) differential-drive kinematics with
//     three update laws and the Jacobians F and L for error propagation
//   - [Quadrotor]: 12-state quadrotor rigid body driven by four motor speeds
//
// # Jacobians
//
// DiffDrive keeps F (3x3) and L (3x2) in its matrix descriptor once
// [DiffDrive.InitializeMatrices] has been called:
//
//	dd := physics.NewDiffDrive(physics.V1, true)
//	dd.SetTimeStep(0.1)
//	in := physics.V1Input{V: 1, W: 0.2}
//	_ = dd.InitializeMatrices(in)
//	_ = dd.Integrate(in)
//	F, _ := dd.Matrix("F")
package physics
