// Package dynamo provides the building blocks shared by every motion model.
//
//   - [SysState]: fixed-dimension vector of named values (x, y, theta, ...)
//   - [MatrixDescriptor]: named registry of matrices and vectors, e.g. the
//     Jacobians F and L used for linearized error propagation
//   - [Model]: embeddable base holding state, descriptor, time step and tolerance
//   - [MotionModel]: contract implemented by concrete integrators
//   - [Input] and [Resolve]: associative named-parameter input
//
// # Example
//
//	s := dynamo.NewSysStateWithNames([]string{"X", "Y", "Theta"}, 0)
//	_ = s.Set("X", 1.5)
//	x, _ := s.Get("X")
//
// # Thread Safety
//
// None of the types here lock. Use one model instance per goroutine.
package dynamo
