package refcodec

import (
	"math"
	"math/big"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type color string

type point struct {
	X, Y int
}

type taggedFields struct {
	Name   string `codec:"name"`
	Secret string `codec:"-"`
	Count  int
	hidden int
}

type treeNode struct {
	Name   string
	Child  *treeNode
	Parent *treeNode
}

type EncodeTestSuite struct {
	suite.Suite
}

func TestEncode(t *testing.T) {
	suite.Run(t, new(EncodeTestSuite))
}

func (s *EncodeTestSuite) TestScalarsAreInlined() {
	cases := []struct {
		name string
		in   any
		want *Node
	}{
		{"Nil", nil, NullNode()},
		{"Undefined", Undefined, UndefinedNode()},
		{"Bool", true, BoolNode(true)},
		{"Int", 42, NumberNode(42)},
		{"Uint8", uint8(7), NumberNode(7)},
		{"Float32", float32(1.5), NumberNode(1.5)},
		{"IntAtExactLimit", int64(1 << 53), NumberNode(1 << 53)},
		{"IntBeyondFloat", int64(1<<53 + 1), BigIntNode("9007199254740993")},
		{"NegativeBeyondFloat", int64(-1<<53 - 1), BigIntNode("-9007199254740993")},
		{"MaxUint64", uint64(math.MaxUint64), BigIntNode("18446744073709551615")},
		{"String", "hi", StringNode("hi")},
		{"NamedString", color("red"), StringNode("red")},
		{"BigIntPointer", big.NewInt(-12), BigIntNode("-12")},
		{"BigIntValue", *big.NewInt(99), BigIntNode("99")},
		{"Symbol", NewSymbol("tag"), SymbolNode("tag")},
		{"NilSlice", []any(nil), NullNode()},
		{"NilMap", map[string]int(nil), NullNode()},
		{"NilPointer", (*int)(nil), NullNode()},
		{"NilRecord", (*Record)(nil), NullNode()},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			doc, err := Encode(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, doc.Root)
		})
	}
}

func (s *EncodeTestSuite) TestComposites() {
	when := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)

	cases := []struct {
		name string
		in   any
		want *Node
	}{
		{"BoxedBool", Ptr(true), BoxedBoolNode("1", true)},
		{"BoxedNumber", Ptr(int16(-3)), BoxedNumberNode("1", -3)},
		{"BoxedString", Ptr("s"), BoxedStringNode("1", "s")},
		{"Date", when, DateNode("1", "2024-03-01T12:30:00.0000005Z")},
		{"DatePointer", &when, DateNode("1", "2024-03-01T12:30:00.0000005Z")},
		{"Pattern", regexp.MustCompile(`^a+b$`), PatternNode("1", `^a+b$`)},
		{"Bytes", []byte{1, 2}, BufferNode("1", ElementUint8, 1, 2)},
		{"Clamped", Uint8Clamped{9}, BufferNode("1", ElementUint8Clamped, 9)},
		{"Float64s", []float64{0.5}, BufferNode("1", ElementFloat64, 0.5)},
		{"EmptyBuffer", []int32{}, BufferNode("1", ElementInt32)},
		{
			"Sequence",
			[]any{1, "a", nil},
			SequenceNode("1", NumberNode(1), StringNode("a"), NullNode()),
		},
		{
			"Array",
			[2]string{"x", "y"},
			SequenceNode("1", StringNode("x"), StringNode("y")),
		},
		{
			"StringMapSortsKeys",
			map[string]int{"b": 2, "a": 1},
			RecordNode("1", Field{"a", NumberNode(1)}, Field{"b", NumberNode(2)}),
		},
		{
			"Struct",
			point{X: 1, Y: 2},
			RecordNode("1", Field{"X", NumberNode(1)}, Field{"Y", NumberNode(2)}),
		},
		{
			"StructTags",
			&taggedFields{Name: "n", Secret: "s", Count: 3, hidden: 4},
			RecordNode("1", Field{"name", StringNode("n")}, Field{"Count", NumberNode(3)}),
		},
		{
			"IntMapIsAssociation",
			map[int]string{2: "b", 1: "a"},
			AssociationNode("1",
				Pair{NumberNode(1), StringNode("a")},
				Pair{NumberNode(2), StringNode("b")},
			),
		},
		{
			"Set",
			NewSet("x", 1),
			CollectionNode("1", StringNode("x"), NumberNode(1)),
		},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			doc, err := Encode(tc.in)
			require.NoError(t, err)
			assertNodesEqual(t, tc.want, doc.Root)
		})
	}
}

func (s *EncodeTestSuite) TestRecordKeepsInsertionOrder() {
	r := NewRecord()
	r.Set("z", 1)
	r.Set("a", 2)
	r.Set("m", 3)

	doc, err := Encode(r)
	s.Require().NoError(err)

	var keys []string
	for _, f := range doc.Root.Fields {
		keys = append(keys, f.Key)
	}
	s.Equal([]string{"z", "a", "m"}, keys)
}

func (s *EncodeTestSuite) TestMapWithCompositeKeys() {
	key := []any{"k"}
	m := NewMap()
	m.Set(key, 1)
	m.Set("other", key)

	doc, err := Encode(m)
	s.Require().NoError(err)

	want := AssociationNode("1",
		Pair{SequenceNode("2", StringNode("k")), NumberNode(1)},
		Pair{StringNode("other"), RefNode("2")},
	)
	assertNodesEqual(s.T(), want, doc.Root)
}

func (s *EncodeTestSuite) TestSelfContainingSequence() {
	seq := make([]any, 1)
	seq[0] = seq
	r := NewRecord()
	r.Set("a", seq)

	doc, err := Encode(r)
	s.Require().NoError(err)

	root := doc.Root
	s.Require().Equal(KindRecord, root.Kind)
	s.Equal("1", root.ID)
	a := root.Fields[0].Value
	s.Require().Equal(KindSequence, a.Kind)
	s.Equal("2", a.ID)
	s.Require().Len(a.Items, 1)
	s.Equal(RefNode(a.ID), a.Items[0])
}

func (s *EncodeTestSuite) TestSharedValueBecomesRef() {
	shared := []any{1, 2, 3}
	in := struct {
		X []any `codec:"x"`
		Y []any `codec:"y"`
	}{shared, shared}

	doc, err := Encode(in)
	s.Require().NoError(err)

	x := doc.Root.Fields[0].Value
	y := doc.Root.Fields[1].Value
	s.Equal(KindSequence, x.Kind)
	s.Equal(RefNode(x.ID), y)
}

func (s *EncodeTestSuite) TestSelfReferentialRecord() {
	r := NewRecord()
	r.Set("self", r)

	doc, err := Encode(r)
	s.Require().NoError(err)
	assertNodesEqual(s.T(), RecordNode("1", Field{"self", RefNode("1")}), doc.Root)
}

func (s *EncodeTestSuite) TestMutualCycle() {
	a := &treeNode{Name: "a"}
	b := &treeNode{Name: "b", Parent: a}
	a.Child = b

	doc, err := Encode(a)
	s.Require().NoError(err)

	want := RecordNode("1",
		Field{"Name", StringNode("a")},
		Field{"Child", RecordNode("2",
			Field{"Name", StringNode("b")},
			Field{"Child", NullNode()},
			Field{"Parent", RefNode("1")},
		)},
		Field{"Parent", NullNode()},
	)
	assertNodesEqual(s.T(), want, doc.Root)
}

func (s *EncodeTestSuite) TestEqualScalarsAreNotShared() {
	first := "same text"
	second := string([]byte("same text"))

	doc, err := Encode([]any{first, second, 1.5, 1.5})
	s.Require().NoError(err)
	s.Zero(doc.Stats().Refs)
}

func (s *EncodeTestSuite) TestSymbolsAreNeverShared() {
	sym := NewSymbol("once")
	doc, err := Encode([]any{sym, sym})
	s.Require().NoError(err)
	s.Equal(SymbolNode("once"), doc.Root.Items[0])
	s.Equal(SymbolNode("once"), doc.Root.Items[1])
}

func (s *EncodeTestSuite) TestSubslicesHaveTheirOwnIdentity() {
	base := []any{1, 2, 3}
	doc, err := Encode([]any{base, base[:2], base})
	s.Require().NoError(err)

	items := doc.Root.Items
	s.Equal(KindSequence, items[0].Kind)
	s.Equal(KindSequence, items[1].Kind)
	s.Equal(RefNode(items[0].ID), items[2])
}

func (s *EncodeTestSuite) TestUnsupportedKinds() {
	// int 1 and float64 1 are distinct Go keys but the same Number.
	colliding := map[any]string{}
	colliding[1] = "int"
	colliding[float64(1)] = "float"

	cases := []struct {
		name string
		in   any
		path string
	}{
		{"Func", func() {}, "$"},
		{"Chan", make(chan int), "$"},
		{"Complex", complex(1, 2), "$"},
		{"Uintptr", uintptr(1), "$"},
		{"InexactBoxedInt", Ptr(int64(1<<60 + 1)), "$"},
		{"CollidingKeys", colliding, "$<key 1>"},
		{"DuplicateFieldName", struct {
			A int
			B int `codec:"A"`
		}{}, "$"},
		{"OpaqueStruct", struct{ M sync.Mutex }{}, "$.M"},
		{"Nested", map[string]any{"a": []any{1, func() {}}}, "$.a[1]"},
		{"AssociationKey", map[any]int{make(chan int): 1}, "$<key 0>"},
	}
	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.in)
			require.ErrorIs(t, err, ErrUnsupportedValueKind)
			assert.ErrorContains(t, err, "(at "+tc.path+")")
		})
	}
}

func (s *EncodeTestSuite) TestLargeIntegersStayExact() {
	data, err := Marshal([]any{int64(9007199254740993), uint64(1<<64 - 1)})
	s.Require().NoError(err)

	v, err := Unmarshal(data)
	s.Require().NoError(err)
	got := v.([]any)
	s.Require().Len(got, 2)
	s.Equal("9007199254740993", got[0].(*big.Int).String())
	s.Equal("18446744073709551615", got[1].(*big.Int).String())
}

func (s *EncodeTestSuite) TestMaxDepth() {
	s.T().Run("DefaultLimit", func(t *testing.T) {
		_, err := Encode(nestedSequences(DefaultMaxDepth + 1))
		assert.ErrorIs(t, err, ErrRecursionLimit)

		_, err = Encode(nestedSequences(DefaultMaxDepth))
		assert.NoError(t, err)
	})

	s.T().Run("CustomLimit", func(t *testing.T) {
		enc := NewEncoder().WithMaxDepth(3)
		_, err := enc.Encode(nestedSequences(3))
		require.NoError(t, err)
		_, err = enc.Encode(nestedSequences(4))
		assert.ErrorIs(t, err, ErrRecursionLimit)
	})

	s.T().Run("UnboundedDoesNotOverflow", func(t *testing.T) {
		doc, err := NewEncoder().WithMaxDepth(0).Encode(nestedSequences(200_000))
		require.NoError(t, err)
		assert.Equal(t, 200_001, doc.Stats().MaxDepth)
	})
}

func (s *EncodeTestSuite) TestRandomIDs() {
	shared := NewRecord()
	doc, err := NewEncoder().WithIDScheme(IDRandom).Encode([]any{shared, shared, []any{}})
	s.Require().NoError(err)

	root := doc.Root
	ids := []string{root.ID, root.Items[0].ID, root.Items[2].ID}
	for _, id := range ids {
		_, err := uuid.Parse(id)
		s.NoError(err, "id %q", id)
	}
	s.NotEqual(ids[0], ids[1])
	s.NotEqual(ids[1], ids[2])
	s.Equal(RefNode(ids[1]), root.Items[1])
}

func (s *EncodeTestSuite) TestConcurrentEncodes() {
	enc := NewEncoder()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := NewRecord()
			r.Set("self", r)
			doc, err := enc.Encode(r)
			assert.NoError(s.T(), err)
			assert.Equal(s.T(), "1", doc.Root.ID)
		}()
	}
	wg.Wait()
}

// nestedSequences builds n sequences, each holding the next.
func nestedSequences(n int) any {
	var v any
	for range n {
		v = []any{v}
	}
	return v
}

// assertNodesEqual compares documents treating nil and empty child slices alike.
func assertNodesEqual(t *testing.T, want, got *Node) {
	t.Helper()
	assert.Equal(t, normalize(want), normalize(got))
}

func normalize(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Items = nil
	for _, c := range n.Items {
		out.Items = append(out.Items, normalize(c))
	}
	out.Fields = nil
	for _, f := range n.Fields {
		out.Fields = append(out.Fields, Field{f.Key, normalize(f.Value)})
	}
	out.Pairs = nil
	for _, p := range n.Pairs {
		out.Pairs = append(out.Pairs, Pair{normalize(p.Key), normalize(p.Value)})
	}
	if len(n.Values) == 0 {
		out.Values = nil
	}
	return &out
}
