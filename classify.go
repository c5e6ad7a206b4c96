package refcodec

import (
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"slices"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// class is the classification of a Go type.
type class struct {
	kind   Kind
	elem   ElementKind // buffers
	fields []fieldPlan // structs and pointers to structs
	reason string      // unsupported
}

// fieldPlan locates one exported struct field and names its record key.
type fieldPlan struct {
	index int
	name  string
}

// classCache avoids repeating reflection over struct fields on every value.
// It holds type metadata only and is safe for concurrent use.
var classCache = xsync.NewMap[reflect.Type, *class]()

var (
	nullClass = &class{kind: KindNull}

	typeUndefined = reflect.TypeFor[UndefinedType]()
	typeSymbol    = reflect.TypeFor[*Symbol]()
	typeBigInt    = reflect.TypeFor[big.Int]()
	typeBigIntPtr = reflect.TypeFor[*big.Int]()
	typeTime      = reflect.TypeFor[time.Time]()
	typeTimePtr   = reflect.TypeFor[*time.Time]()
	typeRegexp    = reflect.TypeFor[*regexp.Regexp]()
	typeRecord    = reflect.TypeFor[*Record]()
	typeSet       = reflect.TypeFor[*Set]()
	typeMap       = reflect.TypeFor[*Map]()
	typeClamped   = reflect.TypeFor[Uint8Clamped]()
)

// classify maps v to exactly one variant. Interfaces are unwrapped first and
// the unwrapped value is returned alongside its class. The priority order is:
//
//  1. nil interfaces, pointers, maps and slices: null
//  2. Undefined
//  3. *Symbol, big.Int and *big.Int
//  4. time.Time and *time.Time
//  5. *regexp.Regexp
//  6. *Record, *Set, *Map
//  7. Uint8Clamped and slices of fixed-width numbers: buffers
//  8. bool, string and numeric kinds
//  9. pointers to bool, string, numeric kinds (boxed) and structs (record)
//  10. other slices and arrays, maps, structs
//
// Anything else is KindUnsupported.
func classify(v reflect.Value) (*class, reflect.Value) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nullClass, v
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nullClass, v
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nullClass, v
		}
	}
	return classOf(v.Type()), v
}

func classOf(t reflect.Type) *class {
	if c, ok := classCache.Load(t); ok {
		return c
	}
	c := computeClass(t)
	classCache.Store(t, c)
	return c
}

func computeClass(t reflect.Type) *class {
	switch t {
	case typeUndefined:
		return &class{kind: KindUndefined}
	case typeSymbol:
		return &class{kind: KindSymbol}
	case typeBigInt, typeBigIntPtr:
		return &class{kind: KindBigInt}
	case typeTime, typeTimePtr:
		return &class{kind: KindDate}
	case typeRegexp:
		return &class{kind: KindPattern}
	case typeRecord:
		return &class{kind: KindRecord}
	case typeSet:
		return &class{kind: KindCollection}
	case typeMap:
		return &class{kind: KindAssociation}
	case typeClamped:
		return &class{kind: KindBuffer, elem: ElementUint8Clamped}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &class{kind: KindBool}
	case reflect.String:
		return &class{kind: KindString}
	case reflect.Slice:
		if elem := elementOf(t.Elem().Kind()); elem != ElementNone {
			return &class{kind: KindBuffer, elem: elem}
		}
		return &class{kind: KindSequence}
	case reflect.Array:
		return &class{kind: KindSequence}
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return &class{kind: KindRecord}
		}
		return &class{kind: KindAssociation}
	case reflect.Struct:
		return structClass(t)
	case reflect.Pointer:
		e := t.Elem()
		switch {
		case e.Kind() == reflect.Bool:
			return &class{kind: KindBoxedBool}
		case e.Kind() == reflect.String:
			return &class{kind: KindBoxedString}
		case isNumeric(e.Kind()):
			return &class{kind: KindBoxedNumber}
		case e.Kind() == reflect.Struct:
			return structClass(e)
		}
		return unsupported(t)
	}
	if isNumeric(t.Kind()) {
		return &class{kind: KindNumber}
	}
	return unsupported(t)
}

// structClass plans a struct as a record of its exported fields in
// declaration order. A `codec:"name"` tag renames a field and `codec:"-"`
// skips it. Structs whose fields are all unexported are opaque handles
// (mutexes, weak pointers) and are rejected rather than encoded as {}.
func structClass(t reflect.Type) *class {
	var plan []fieldPlan
	exported := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		exported++
		name := f.Name
		switch tag := f.Tag.Get("codec"); tag {
		case "-":
			continue
		case "":
		default:
			name = tag
		}
		if slices.ContainsFunc(plan, func(p fieldPlan) bool { return p.name == name }) {
			return &class{kind: KindUnsupported, reason: fmt.Sprintf("duplicate field name %q in %s", name, t)}
		}
		plan = append(plan, fieldPlan{index: i, name: name})
	}
	if t.NumField() > 0 && exported == 0 {
		return &class{kind: KindUnsupported, reason: "opaque struct " + t.String()}
	}
	return &class{kind: KindRecord, fields: plan}
}

func unsupported(t reflect.Type) *class {
	return &class{kind: KindUnsupported, reason: t.String()}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func elementOf(k reflect.Kind) ElementKind {
	switch k {
	case reflect.Uint8:
		return ElementUint8
	case reflect.Int8:
		return ElementInt8
	case reflect.Uint16:
		return ElementUint16
	case reflect.Int16:
		return ElementInt16
	case reflect.Uint32:
		return ElementUint32
	case reflect.Int32:
		return ElementInt32
	case reflect.Float32:
		return ElementFloat32
	case reflect.Float64:
		return ElementFloat64
	}
	return ElementNone
}

// maxExactInt is the largest integer magnitude float64 holds without rounding.
const maxExactInt = 1 << 53

// numberOf reads any integer or float kind as float64. ok is false for
// integers beyond ±2^53, which a Number cannot carry exactly.
func numberOf(v reflect.Value) (f float64, ok bool) {
	switch {
	case v.CanInt():
		i := v.Int()
		return float64(i), i >= -maxExactInt && i <= maxExactInt
	case v.CanUint():
		u := v.Uint()
		return float64(u), u <= maxExactInt
	}
	return v.Float(), true
}

// integerOf returns the exact value of an integer kind.
func integerOf(v reflect.Value) *big.Int {
	if v.CanInt() {
		return big.NewInt(v.Int())
	}
	return new(big.Int).SetUint64(v.Uint())
}
