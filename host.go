package refcodec

import (
	"math"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// UndefinedType is the type of Undefined.
type UndefinedType struct{}

// Undefined is the host value of an absent value, distinct from nil (null).
var Undefined = UndefinedType{}

func (UndefinedType) String() string { return "undefined" }

// Symbol is a unique tag identified only by its description. Two symbols are
// equal only if they are the same pointer; decoding always allocates a new one.
type Symbol struct {
	description string
}

// NewSymbol creates a fresh symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

func (s *Symbol) Description() string { return s.description }
func (s *Symbol) String() string      { return "Symbol(" + s.description + ")" }

// Uint8Clamped is a byte buffer whose elements saturate instead of wrapping.
type Uint8Clamped []uint8

// ClampUint8 converts f the way a clamped byte buffer stores it: NaN becomes 0,
// values saturate at 0 and 255, and fractions round half to even.
func ClampUint8(f float64) uint8 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return uint8(math.RoundToEven(f))
}

// ============================================================
// Record
// ============================================================

// Record is a string-keyed map that remembers insertion order.
// The zero value is ready to use.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores v under key. A key keeps the position of its first insertion.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (r *Record) Delete(key string) bool {
	if _, ok := r.values[key]; !ok {
		return false
	}
	delete(r.values, key)
	r.keys = slices.DeleteFunc(r.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string { return slices.Clone(r.keys) }
func (r *Record) Len() int       { return len(r.keys) }

// Range calls fn for each field in insertion order until fn returns false.
func (r *Record) Range(fn func(key string, v any) bool) {
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// ============================================================
// Set
// ============================================================

// Set is an insertion-ordered set. Scalars are compared by value (NaN equals
// NaN), composites by identity. The zero value is ready to use.
type Set struct {
	items   []any
	members mapset.Set[any]
}

// NewSet creates a set holding items, in order, without duplicates.
func NewSet(items ...any) *Set {
	s := &Set{members: mapset.NewThreadUnsafeSet[any]()}
	for _, v := range items {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s *Set) Add(v any) bool {
	if s.members == nil {
		s.members = mapset.NewThreadUnsafeSet[any]()
	}
	if !s.members.Add(memberKey(v)) {
		return false
	}
	s.items = append(s.items, v)
	return true
}

func (s *Set) Has(v any) bool {
	return s.members != nil && s.members.Contains(memberKey(v))
}

// Items returns the members in insertion order.
func (s *Set) Items() []any { return slices.Clone(s.items) }
func (s *Set) Len() int     { return len(s.items) }

// ============================================================
// Map
// ============================================================

// Map is an insertion-ordered association whose keys may be any value,
// including composites. Keys follow the same equality as Set.
// The zero value is ready to use.
type Map struct {
	keys   []any
	values []any
	index  map[any]int
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{index: make(map[any]int)}
}

// Set stores v under k. A key keeps the position of its first insertion.
func (m *Map) Set(k, v any) {
	if m.index == nil {
		m.index = make(map[any]int)
	}
	key := memberKey(k)
	if i, ok := m.index[key]; ok {
		m.values[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, k)
	m.values = append(m.values, v)
}

func (m *Map) Get(k any) (any, bool) {
	i, ok := m.index[memberKey(k)]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

func (m *Map) Has(k any) bool {
	_, ok := m.index[memberKey(k)]
	return ok
}

// Delete removes k and reports whether it was present.
func (m *Map) Delete(k any) bool {
	key := memberKey(k)
	i, ok := m.index[key]
	if !ok {
		return false
	}
	delete(m.index, key)
	m.keys = slices.Delete(m.keys, i, i+1)
	m.values = slices.Delete(m.values, i, i+1)
	for mk, j := range m.index {
		if j > i {
			m.index[mk] = j - 1
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any { return slices.Clone(m.keys) }

// Values returns the values in key insertion order.
func (m *Map) Values() []any { return slices.Clone(m.values) }
func (m *Map) Len() int      { return len(m.keys) }

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(k, v any) bool) {
	for i, k := range m.keys {
		if !fn(k, m.values[i]) {
			return
		}
	}
}
