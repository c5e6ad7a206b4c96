package refcodec

import (
	"math"
	"reflect"
	"unsafe"
)

// handle is the identity of a composite Go value: its dynamic type, the
// address of its storage and, for slices, its length. Two values share a
// handle only if they alias the same storage; equal content is not enough.
type handle struct {
	typ reflect.Type
	ptr unsafe.Pointer
	n   int
}

// identityOf returns the handle of v. Values without storage of their own
// (structs, arrays, scalars), nil values, zero-length slices and pointers to
// zero-sized types have no identity: the runtime may hand the same address
// to unrelated allocations of that size.
func identityOf(v reflect.Value) (handle, bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Type().Elem().Size() == 0 {
			return handle{}, false
		}
		return handle{typ: v.Type(), ptr: v.UnsafePointer()}, true
	case reflect.Map:
		if v.IsNil() {
			return handle{}, false
		}
		return handle{typ: v.Type(), ptr: v.UnsafePointer()}, true
	case reflect.Slice:
		if v.Len() == 0 || v.Type().Elem().Size() == 0 {
			return handle{}, false
		}
		return handle{typ: v.Type(), ptr: v.UnsafePointer(), n: v.Len()}, true
	}
	return handle{}, false
}

// nanKey stands in for every NaN so that sets and maps treat NaN as one value.
type nanKey struct{}

// uniqueKey wraps values that are neither comparable nor identity-bearing;
// each one is distinct from every other.
type uniqueKey struct{ p *any }

// memberKey maps v to a comparable key: scalars by value, composites by identity.
func memberKey(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nanKey{}
		}
		return x
	case float32:
		if math.IsNaN(float64(x)) {
			return nanKey{}
		}
		return x
	}

	rv := reflect.ValueOf(v)
	if h, ok := identityOf(rv); ok {
		return h
	}
	if rv.Comparable() {
		return v
	}
	return uniqueKey{&v}
}
