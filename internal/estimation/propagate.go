package estimation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("estimation: incompatible matrix shapes")

// Propagate returns F P Fᵀ + L Q Lᵀ. P must be n×n, F n×n, L n×m and Q m×m.
func Propagate(P, F, L, Q mat.Matrix) (*mat.Dense, error) {
	n, c := P.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: P is %dx%d", ErrShape, n, c)
	}
	if r, c := F.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: F is %dx%d, want %dx%d", ErrShape, r, c, n, n)
	}
	lr, m := L.Dims()
	if lr != n {
		return nil, fmt.Errorf("%w: L has %d rows, want %d", ErrShape, lr, n)
	}
	if r, c := Q.Dims(); r != m || c != m {
		return nil, fmt.Errorf("%w: Q is %dx%d, want %dx%d", ErrShape, r, c, m, m)
	}

	var fp, out mat.Dense
	fp.Mul(F, P)
	out.Mul(&fp, F.T())

	var lq, noise mat.Dense
	lq.Mul(L, Q)
	noise.Mul(&lq, L.T())

	out.Add(&out, &noise)
	return &out, nil
}
