package physics

import (
	"fmt"
	"strings"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// DynamicVersion selects the differential-drive update law.
type DynamicVersion int

const (
	// V1 uses the exact arc model, or a half-distance straight line when
	// the angular velocity is below the tolerance.
	V1 DynamicVersion = iota
	// V2 always uses the first-order straight-line model.
	V2
	// V3 takes the two wheel speeds as input.
	V3
)

func (v DynamicVersion) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	}
	return fmt.Sprintf("DynamicVersion(%d)", int(v))
}

// ParseDynamicVersion accepts "v1", "V2", "3" and similar.
func ParseDynamicVersion(s string) (DynamicVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1", "":
		return V1, nil
	case "v2", "2":
		return V2, nil
	case "v3", "3":
		return V3, nil
	}
	return V1, fmt.Errorf("unknown dynamics version: %s", s)
}

// DiffDriveInput is the input of one DiffDrive step. Each version has its
// own concrete type so the required fields are always present.
type DiffDriveInput interface {
	Version() DynamicVersion
	// Velocities returns the linear and angular velocity the input implies.
	Velocities() (v, w float64)
	ErrorTerms() [2]float64
	Values() []float64
	diffDriveInput()
}

// V1Input drives the V1 law.
type V1Input struct {
	V, W   float64
	Errors [2]float64
}

func (V1Input) Version() DynamicVersion { return V1 }
func (in V1Input) Velocities() (float64, float64) { return in.V, in.W }
func (in V1Input) ErrorTerms() [2]float64 { return in.Errors }
func (in V1Input) Values() []float64 {
	return []float64{in.V, in.W, in.Errors[0], in.Errors[1]}
}
func (V1Input) diffDriveInput() {}

// V2Input drives the V2 law.
type V2Input struct {
	V, W   float64
	Errors [2]float64
}

func (V2Input) Version() DynamicVersion { return V2 }
func (in V2Input) Velocities() (float64, float64) { return in.V, in.W }
func (in V2Input) ErrorTerms() [2]float64 { return in.Errors }
func (in V2Input) Values() []float64 {
	return []float64{in.V, in.W, in.Errors[0], in.Errors[1]}
}
func (V2Input) diffDriveInput() {}

// V3Input drives the V3 law with wheel angular speeds W1, W2, wheel
// radius R and half axle length L.
type V3Input struct {
	W1, W2 float64
	R, L   float64
	Errors [2]float64
}

func (V3Input) Version() DynamicVersion { return V3 }

func (in V3Input) Velocities() (float64, float64) {
	return 0.5 * in.R * (in.W1 + in.W2), in.R * (in.W1 - in.W2) / (2.0 * in.L)
}

func (in V3Input) ErrorTerms() [2]float64 { return in.Errors }
func (in V3Input) Values() []float64 {
	return []float64{in.W1, in.W2, in.Errors[0], in.Errors[1]}
}
func (V3Input) diffDriveInput() {}

// ResolveDiffDriveInput builds the typed input of version from named
// properties: w, v, errors for V1 and V2; w1, w2, errors, r, l for V3.
func ResolveDiffDriveInput(version DynamicVersion, in dynamo.Input) (DiffDriveInput, error) {
	errs, err := dynamo.ResolvePair("errors", in)
	if err != nil {
		return nil, err
	}

	switch version {
	case V1, V2:
		w, err := dynamo.Resolve[float64]("w", in)
		if err != nil {
			return nil, err
		}
		v, err := dynamo.Resolve[float64]("v", in)
		if err != nil {
			return nil, err
		}
		if version == V1 {
			return V1Input{V: v, W: w, Errors: errs}, nil
		}
		return V2Input{V: v, W: w, Errors: errs}, nil
	case V3:
		names := []string{"w1", "w2", "r", "l"}
		vals := make([]float64, len(names))
		for i, n := range names {
			if vals[i], err = dynamo.Resolve[float64](n, in); err != nil {
				return nil, err
			}
		}
		return V3Input{W1: vals[0], W2: vals[1], R: vals[2], L: vals[3], Errors: errs}, nil
	}
	return nil, fmt.Errorf("unknown dynamics version: %s", version)
}
