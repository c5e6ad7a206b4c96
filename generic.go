package refcodec

import (
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// sliceOf converts a (possibly named) slice value to []T. The caller has
// checked that T is the element type.
func sliceOf[T any](v reflect.Value) []T {
	return v.Convert(reflect.TypeFor[[]T]()).Interface().([]T)
}

func floatsOf[T number](s []T) []float64 {
	out := make([]float64, len(s))
	for i, x := range s {
		out[i] = float64(x)
	}
	return out
}

// bufferValues reads the elements of a buffer value as float64, which holds
// every supported element type exactly.
func bufferValues(v reflect.Value, elem ElementKind) []float64 {
	switch elem {
	case ElementUint8, ElementUint8Clamped:
		return floatsOf(sliceOf[uint8](v))
	case ElementInt8:
		return floatsOf(sliceOf[int8](v))
	case ElementUint16:
		return floatsOf(sliceOf[uint16](v))
	case ElementInt16:
		return floatsOf(sliceOf[int16](v))
	case ElementUint32:
		return floatsOf(sliceOf[uint32](v))
	case ElementInt32:
		return floatsOf(sliceOf[int32](v))
	case ElementFloat32:
		return floatsOf(sliceOf[float32](v))
	case ElementFloat64:
		return floatsOf(sliceOf[float64](v))
	}
	return nil
}

// integersOf converts values to T, rejecting any value T cannot hold exactly.
func integersOf[T constraints.Integer](values []float64) ([]T, error) {
	out := make([]T, len(values))
	for i, f := range values {
		x := T(f)
		if f != math.Trunc(f) || float64(x) != f {
			return nil, fmt.Errorf("%w: element %d (%v) does not fit %T", ErrMalformedNode, i, f, x)
		}
		out[i] = x
	}
	return out, nil
}

func float32sOf(values []float64) ([]float32, error) {
	out := make([]float32, len(values))
	for i, f := range values {
		x := float32(f)
		if float64(x) != f && !math.IsNaN(f) {
			return nil, fmt.Errorf("%w: element %d (%v) does not fit float32", ErrMalformedNode, i, f)
		}
		out[i] = x
	}
	return out, nil
}

// newBuffer builds the Go slice for a buffer node.
//
//	uint8array         []uint8
//	uint8clampedarray  Uint8Clamped (values are clamped, never rejected)
//	int8array          []int8
//	uint16array        []uint16
//	int16array         []int16
//	uint32array        []uint32
//	int32array         []int32
//	float32array       []float32
//	float64array       []float64
func newBuffer(elem ElementKind, values []float64) (any, error) {
	switch elem {
	case ElementUint8:
		return integersOf[uint8](values)
	case ElementUint8Clamped:
		out := make(Uint8Clamped, len(values))
		for i, f := range values {
			out[i] = ClampUint8(f)
		}
		return out, nil
	case ElementInt8:
		return integersOf[int8](values)
	case ElementUint16:
		return integersOf[uint16](values)
	case ElementInt16:
		return integersOf[int16](values)
	case ElementUint32:
		return integersOf[uint32](values)
	case ElementInt32:
		return integersOf[int32](values)
	case ElementFloat32:
		return float32sOf(values)
	case ElementFloat64:
		out := make([]float64, len(values))
		copy(out, values)
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown buffer element kind %d", ErrMalformedNode, elem)
}
