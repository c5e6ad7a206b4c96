package refcodec

// Kind is the discriminant of a Document node.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindString
	KindBigInt
	KindSymbol
	KindBoxedBool
	KindBoxedNumber
	KindBoxedString
	KindDate
	KindPattern
	KindSequence
	KindRecord
	KindCollection
	KindAssociation
	KindBuffer
	KindRef

	// KindUnsupported is the classification outcome for Go values that have
	// no variant. It never appears inside a Document.
	KindUnsupported
)

var kindNames = [...]string{
	KindNull:        "null",
	KindUndefined:   "undefined",
	KindBool:        "boolean",
	KindNumber:      "number",
	KindString:      "string",
	KindBigInt:      "bigint",
	KindSymbol:      "symbol",
	KindBoxedBool:   "boolean-boxed",
	KindBoxedNumber: "number-boxed",
	KindBoxedString: "string-boxed",
	KindDate:        "date",
	KindPattern:     "pattern",
	KindSequence:    "sequence",
	KindRecord:      "record",
	KindCollection:  "collection",
	KindAssociation: "association",
	KindBuffer:      "buffer",
	KindRef:         "ref",
	KindUnsupported: "unsupported",
}

// String returns the wire discriminant of the kind. Buffers are written with
// the name of their element kind instead.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsComposite reports whether values of this kind carry identity and are
// assigned a reference id.
func (k Kind) IsComposite() bool {
	return k >= KindBoxedBool && k <= KindBuffer
}

// IsContainer reports whether nodes of this kind hold child nodes.
func (k Kind) IsContainer() bool {
	switch k {
	case KindSequence, KindRecord, KindCollection, KindAssociation:
		return true
	}
	return false
}

// ElementKind is the fixed element type of a numeric buffer.
type ElementKind uint8

const (
	ElementNone ElementKind = iota
	ElementUint8
	ElementUint8Clamped
	ElementInt8
	ElementUint16
	ElementInt16
	ElementUint32
	ElementInt32
	ElementFloat32
	ElementFloat64
)

var elementNames = [...]string{
	ElementNone:         "",
	ElementUint8:        "uint8array",
	ElementUint8Clamped: "uint8clampedarray",
	ElementInt8:         "int8array",
	ElementUint16:       "uint16array",
	ElementInt16:        "int16array",
	ElementUint32:       "uint32array",
	ElementInt32:        "int32array",
	ElementFloat32:      "float32array",
	ElementFloat64:      "float64array",
}

// String returns the wire discriminant of a buffer with this element kind.
func (e ElementKind) String() string {
	if int(e) < len(elementNames) {
		return elementNames[e]
	}
	return "unknown"
}

// kindByName resolves a wire discriminant. Buffer discriminants resolve to
// KindBuffer plus their element kind.
func kindByName(name string) (Kind, ElementKind, bool) {
	for e := ElementUint8; e <= ElementFloat64; e++ {
		if elementNames[e] == name {
			return KindBuffer, e, true
		}
	}
	for k := KindNull; k < KindUnsupported; k++ {
		if k != KindBuffer && kindNames[k] == name {
			return k, ElementNone, true
		}
	}
	return KindUnsupported, ElementNone, false
}
