// Package viz provides terminal rendering for rigid-body simulations.
//
//   - [Model]: Bubble Tea program that steps a [Stepper] live
//   - [Canvas]: Braille-based pixel canvas with world-space drawing
//   - [Camera] and [Wireframe]: perspective line rendering for 3D vehicles
//   - [PlotColumns] and [PlotTrajectory]: static charts of stored runs
//
// Planar states (X, Y, Theta) draw as a trail with a heading arrow. States
// with x, y, z and phi, theta, psi draw as a 3D frame over a ground grid,
// with z taken as pointing down.
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	R      - Reset to initial state
//	Tab    - Cycle the charted state variable
//	Arrows - Orbit the 3D camera
//	+/-    - Zoom the 3D camera
//	T      - Cycle color themes
//	?      - Show help overlay
package viz
