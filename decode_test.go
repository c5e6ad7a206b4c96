package refcodec

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DecodeTestSuite struct {
	suite.Suite
}

func TestDecode(t *testing.T) {
	suite.Run(t, new(DecodeTestSuite))
}

func (s *DecodeTestSuite) TestScalars() {
	cases := []struct {
		name string
		in   *Node
		want any
	}{
		{"Null", NullNode(), nil},
		{"Undefined", UndefinedNode(), Undefined},
		{"Bool", BoolNode(true), true},
		{"Number", NumberNode(-2.5), -2.5},
		{"String", StringNode("hi"), "hi"},
		{"BigInt", BigIntNode("-123456789012345678901234567890"), bigInt("-123456789012345678901234567890")},
		{"BoxedBool", BoxedBoolNode("1", true), Ptr(true)},
		{"BoxedNumber", BoxedNumberNode("1", 3), Ptr(3.0)},
		{"BoxedString", BoxedStringNode("1", "s"), Ptr("s")},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			got, err := Decode(&Document{Root: tc.in})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func (s *DecodeTestSuite) TestSymbolIsFresh() {
	doc := &Document{Root: SequenceNode("1", SymbolNode("tag"), SymbolNode("tag"))}
	got, err := Decode(doc)
	s.Require().NoError(err)

	items := got.([]any)
	a, b := items[0].(*Symbol), items[1].(*Symbol)
	s.Equal("tag", a.Description())
	s.Equal("tag", b.Description())
	s.NotSame(a, b)
}

func (s *DecodeTestSuite) TestDateAndPattern() {
	doc := &Document{Root: SequenceNode("1",
		DateNode("2", "2024-03-01T12:30:00.0000005+02:00"),
		PatternNode("3", `^a+b$`),
	)}
	got, err := Decode(doc)
	s.Require().NoError(err)

	items := got.([]any)
	date := items[0].(*time.Time)
	want := time.Date(2024, 3, 1, 10, 30, 0, 500, time.UTC)
	s.True(want.Equal(*date), "got %v", date)
	_, offset := date.Zone()
	s.Equal(2*60*60, offset)

	re := items[1].(*regexp.Regexp)
	s.Equal(`^a+b$`, re.String())
	s.True(re.MatchString("aab"))
}

func (s *DecodeTestSuite) TestSelfContainingSequence() {
	seq := make([]any, 1)
	seq[0] = seq
	r := NewRecord()
	r.Set("a", seq)

	doc, err := Encode(r)
	s.Require().NoError(err)
	got, err := Decode(doc)
	s.Require().NoError(err)

	rec := got.(*Record)
	v, ok := rec.Get("a")
	s.Require().True(ok)
	a := v.([]any)
	s.Require().Len(a, 1)
	inner := a[0].([]any)
	s.True(sameSlice(a, inner), "r.a[0] must be r.a itself")
}

func (s *DecodeTestSuite) TestSharedValue() {
	shared := []any{1, 2, 3}
	in := struct {
		X []any `codec:"x"`
		Y []any `codec:"y"`
	}{shared, shared}

	doc, err := Encode(in)
	s.Require().NoError(err)
	got, err := Decode(doc)
	s.Require().NoError(err)

	rec := got.(*Record)
	x, _ := rec.Get("x")
	y, _ := rec.Get("y")
	s.Equal([]any{1.0, 2.0, 3.0}, x)
	s.True(sameSlice(x.([]any), y.([]any)), "r.x and r.y must be one instance")
}

func (s *DecodeTestSuite) TestMutualCycle() {
	a := &treeNode{Name: "a"}
	b := &treeNode{Name: "b", Parent: a}
	a.Child = b

	doc, err := Encode(a)
	s.Require().NoError(err)
	got, err := Decode(doc)
	s.Require().NoError(err)

	ra := got.(*Record)
	child, _ := ra.Get("Child")
	rb := child.(*Record)
	parent, _ := rb.Get("Parent")
	s.Same(ra, parent)
	name, _ := rb.Get("Name")
	s.Equal("b", name)
}

func (s *DecodeTestSuite) TestSharedBoxAndBuffer() {
	box := Ptr(5.0)
	buf := []int16{-1, 2}
	doc, err := Encode([]any{box, buf, box, buf})
	s.Require().NoError(err)
	s.Equal(2, doc.Stats().Refs)

	got, err := Decode(doc)
	s.Require().NoError(err)
	items := got.([]any)
	s.Same(items[0].(*float64), items[2].(*float64))
	s.Equal([]int16{-1, 2}, items[1])
	b1, b2 := items[1].([]int16), items[3].([]int16)
	s.Same(&b1[0], &b2[0])
}

func (s *DecodeTestSuite) TestSetAndMap() {
	key := NewRecord()
	key.Set("k", 1)
	m := NewMap()
	m.Set(key, "record key")
	m.Set(1, key)
	set := NewSet(key, "x")

	doc, err := Encode([]any{m, set})
	s.Require().NoError(err)
	got, err := Decode(doc)
	s.Require().NoError(err)

	items := got.([]any)
	dm := items[0].(*Map)
	ds := items[1].(*Set)
	s.Equal(2, dm.Len())
	dk := dm.Keys()[0].(*Record)
	v, ok := dm.Get(dk)
	s.Require().True(ok)
	s.Equal("record key", v)
	v, ok = dm.Get(1.0)
	s.Require().True(ok)
	s.Same(dk, v)
	s.True(ds.Has(dk))
	s.True(ds.Has("x"))
}

func (s *DecodeTestSuite) TestSelfKeyedMap() {
	m := NewMap()
	m.Set(m, m)

	doc, err := Encode(m)
	s.Require().NoError(err)
	assertNodesEqual(s.T(), AssociationNode("1", Pair{RefNode("1"), RefNode("1")}), doc.Root)

	got, err := Decode(doc)
	s.Require().NoError(err)
	dm := got.(*Map)
	v, ok := dm.Get(dm)
	s.Require().True(ok)
	s.Same(dm, v)
}

func (s *DecodeTestSuite) TestBuffers() {
	cases := []struct {
		name string
		in   any
	}{
		{"Uint8", []uint8{0, 1, 255}},
		{"Uint8Clamped", Uint8Clamped{0, 128, 255}},
		{"Int8", []int8{-128, 0, 127}},
		{"Uint16", []uint16{0, 65535}},
		{"Int16", []int16{-32768, 32767}},
		{"Uint32", []uint32{0, math.MaxUint32}},
		{"Int32", []int32{math.MinInt32, math.MaxInt32}},
		{"Float32", []float32{1.5, -0.25, float32(math.Inf(1)), float32(math.NaN())}},
		{"Float64", []float64{math.Pi, math.SmallestNonzeroFloat64, math.Inf(-1), math.NaN()}},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			doc, err := Encode(tc.in)
			require.NoError(t, err)
			got, err := Decode(doc)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tc.in, got, cmpopts.EquateNaNs()))
		})
	}
}

func (s *DecodeTestSuite) TestBufferElements() {
	s.T().Run("ClampedSaturates", func(t *testing.T) {
		got, err := Decode(&Document{Root: BufferNode("1", ElementUint8Clamped, -3, 300, 1.5, math.NaN())})
		require.NoError(t, err)
		assert.Equal(t, Uint8Clamped{0, 255, 2, 0}, got)
	})

	bad := []struct {
		name string
		elem ElementKind
		v    float64
	}{
		{"Uint8Overflow", ElementUint8, 256},
		{"Int8Fraction", ElementInt8, 1.5},
		{"Uint16Negative", ElementUint16, -1},
		{"Int32NaN", ElementInt32, math.NaN()},
		{"Float32Inexact", ElementFloat32, 0.1},
	}
	for _, tc := range bad {
		s.T().Run(tc.name, func(t *testing.T) {
			_, err := Decode(&Document{Root: BufferNode("1", tc.elem, tc.v)})
			assert.ErrorIs(t, err, ErrMalformedNode)
		})
	}
}

func (s *DecodeTestSuite) TestErrors() {
	cases := []struct {
		name string
		doc  *Document
		want error
		path string
	}{
		{"NilDocument", nil, ErrNilDocument, ""},
		{"NilRoot", &Document{}, ErrNilDocument, ""},
		{"DanglingRef", &Document{Root: SequenceNode("1", RefNode("9"))}, ErrBrokenReference, "$[0]"},
		{
			"ForwardRef",
			&Document{Root: SequenceNode("1", RefNode("2"), SequenceNode("2"))},
			ErrBrokenReference, "$[0]",
		},
		{
			"DuplicateID",
			&Document{Root: RecordNode("1", Field{"a", SequenceNode("1")})},
			ErrMalformedNode, "$.a",
		},
		{"MissingID", &Document{Root: SequenceNode("")}, ErrMalformedNode, "$"},
		{"UnknownKind", &Document{Root: &Node{Kind: KindUnsupported}}, ErrMalformedNode, "$"},
		{"MissingChild", &Document{Root: SequenceNode("1", nil)}, ErrMalformedNode, "$[0]"},
		{"BadBigInt", &Document{Root: BigIntNode("12x")}, ErrMalformedNode, "$"},
		{"BadDate", &Document{Root: DateNode("1", "yesterday")}, ErrMalformedNode, "$"},
		{"BadPattern", &Document{Root: PatternNode("1", "(")}, ErrMalformedNode, "$"},
		{
			"AssociationValue",
			&Document{Root: AssociationNode("1", Pair{StringNode("k"), RefNode("7")})},
			ErrBrokenReference, "$<value 0>",
		},
		{
			"CollectionItem",
			&Document{Root: CollectionNode("1", StringNode("a"), RefNode("7"))},
			ErrBrokenReference, "$#1",
		},
		{
			"DuplicateRecordKey",
			&Document{Root: RecordNode("1", Field{"a", NumberNode(1)}, Field{"a", NumberNode(2)})},
			ErrMalformedNode, "$.a",
		},
		{
			"DuplicateCollectionMember",
			&Document{Root: CollectionNode("1", NumberNode(1), NumberNode(1))},
			ErrMalformedNode, "$#1",
		},
		{
			"DuplicateNaNMember",
			&Document{Root: CollectionNode("1", NumberNode(math.NaN()), NumberNode(math.NaN()))},
			ErrMalformedNode, "$#1",
		},
		{
			"SharedMemberTwice",
			&Document{Root: CollectionNode("1", RecordNode("2"), RefNode("2"))},
			ErrMalformedNode, "$#1",
		},
		{
			"DuplicateAssociationKey",
			&Document{Root: AssociationNode("1",
				Pair{StringNode("k"), NumberNode(1)},
				Pair{StringNode("k"), NumberNode(2)},
			)},
			ErrMalformedNode, "$<key 1>",
		},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.doc)
			require.ErrorIs(t, err, tc.want)
			if tc.path != "" {
				assert.ErrorContains(t, err, "(at "+tc.path+")")
			}
		})
	}
}

func (s *DecodeTestSuite) TestMaxDepth() {
	deep := func(n int) *Document {
		root := NullNode()
		for i := n; i > 0; i-- {
			root = SequenceNode(strconv.Itoa(i), root)
		}
		return &Document{Root: root}
	}

	_, err := NewDecoder().WithMaxDepth(5).Decode(deep(5))
	s.NoError(err)
	_, err = NewDecoder().WithMaxDepth(5).Decode(deep(6))
	s.ErrorIs(err, ErrRecursionLimit)
	_, err = Decode(deep(DefaultMaxDepth + 1))
	s.ErrorIs(err, ErrRecursionLimit)

	got, err := NewDecoder().WithMaxDepth(0).Decode(deep(200_000))
	s.Require().NoError(err)
	depth := 0
	for v := got; v != nil; depth++ {
		v = v.([]any)[0]
	}
	s.Equal(200_000, depth)
}

func (s *DecodeTestSuite) TestRandomIDsRoundTrip() {
	r := NewRecord()
	r.Set("self", r)
	r.Set("list", []any{r})

	doc, err := NewEncoder().WithIDScheme(IDRandom).Encode(r)
	s.Require().NoError(err)
	got, err := Decode(doc)
	s.Require().NoError(err)

	dr := got.(*Record)
	self, _ := dr.Get("self")
	s.Same(dr, self)
	list, _ := dr.Get("list")
	s.Same(dr, list.([]any)[0])
}

func bigInt(s string) *big.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad bigint " + s)
	}
	return b
}

func sameSlice(a, b []any) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}
