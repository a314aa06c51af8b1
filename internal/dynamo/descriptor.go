package dynamo

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// MatrixDescriptor keeps the named matrices and vectors that describe a
// model's linearization. Entries are owned by the descriptor; callers
// mutate them in place through the returned pointers.
type MatrixDescriptor struct {
	matrices map[string]*mat.Dense
	vectors  map[string]*mat.VecDense
}

func NewMatrixDescriptor() *MatrixDescriptor {
	return &MatrixDescriptor{
		matrices: make(map[string]*mat.Dense),
		vectors:  make(map[string]*mat.VecDense),
	}
}

func (d *MatrixDescriptor) Matrix(name string) (*mat.Dense, error) {
	m, ok := d.matrices[name]
	if !ok {
		return nil, fmt.Errorf("%w: Matrix %s not found", ErrMatrixNotFound, name)
	}
	return m, nil
}

// SetMatrix registers a copy of m under name, replacing any previous entry.
func (d *MatrixDescriptor) SetMatrix(name string, m mat.Matrix) {
	d.matrices[name] = mat.DenseCopyOf(m)
}

func (d *MatrixDescriptor) HasMatrix(name string) bool {
	_, ok := d.matrices[name]
	return ok
}

func (d *MatrixDescriptor) MatrixNames() []string {
	names := make([]string, 0, len(d.matrices))
	for n := range d.matrices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (d *MatrixDescriptor) Vector(name string) (*mat.VecDense, error) {
	v, ok := d.vectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: Vector %s not found", ErrVectorNotFound, name)
	}
	return v, nil
}

// SetVector registers a copy of v under name, replacing any previous entry.
func (d *MatrixDescriptor) SetVector(name string, v mat.Vector) {
	c := mat.NewVecDense(v.Len(), nil)
	c.CopyVec(v)
	d.vectors[name] = c
}

func (d *MatrixDescriptor) HasVector(name string) bool {
	_, ok := d.vectors[name]
	return ok
}

func (d *MatrixDescriptor) VectorNames() []string {
	names := make([]string, 0, len(d.vectors))
	for n := range d.vectors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
