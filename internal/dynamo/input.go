package dynamo

import (
	"fmt"
	"reflect"
)

// Input carries named parameters for a model evaluation.
type Input map[string]any

var float64Type = reflect.TypeOf(float64(0))

// Resolve reads property name from in as a T. Numeric values of any Go
// kind are accepted when T is float64.
func Resolve[T any](name string, in Input) (T, error) {
	var zero T
	raw, ok := in[name]
	if !ok {
		return zero, fmt.Errorf("%w: property %s not found in input", ErrMissingInput, name)
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}

	target := reflect.TypeOf(zero)
	rv := reflect.ValueOf(raw)
	if target == float64Type && rv.IsValid() && rv.CanConvert(float64Type) {
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32:
			return rv.Convert(float64Type).Interface().(T), nil
		}
	}
	return zero, fmt.Errorf("%w: property %s is %T", ErrInputType, name, raw)
}

// ResolvePair reads a two-element numeric property such as error terms.
// Arrays, slices of float64 and []any with two numbers are accepted.
func ResolvePair(name string, in Input) ([2]float64, error) {
	raw, ok := in[name]
	if !ok {
		return [2]float64{}, fmt.Errorf("%w: property %s not found in input", ErrMissingInput, name)
	}
	switch v := raw.(type) {
	case [2]float64:
		return v, nil
	case []float64:
		if len(v) == 2 {
			return [2]float64{v[0], v[1]}, nil
		}
	case []any:
		if len(v) == 2 {
			tmp := Input{"0": v[0], "1": v[1]}
			a, errA := Resolve[float64]("0", tmp)
			b, errB := Resolve[float64]("1", tmp)
			if errA == nil && errB == nil {
				return [2]float64{a, b}, nil
			}
		}
	}
	return [2]float64{}, fmt.Errorf("%w: property %s is %T, want 2 numbers", ErrInputType, name, raw)
}
