// Package estimation propagates state uncertainty through the Jacobians a
// motion model keeps in its matrix descriptor.
//
// The prediction step of an extended Kalman filter is
//
//	P' = F P Fᵀ + L Q Lᵀ
//
// where F is the process Jacobian, L the noise Jacobian and Q the noise
// covariance. [Tracker] advances a DiffDrive and its covariance together.
package estimation
