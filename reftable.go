package refcodec

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// IDScheme selects how the encoder mints reference ids.
type IDScheme uint8

const (
	// IDCounter numbers composites "1", "2", ... in pre-order.
	IDCounter IDScheme = iota
	// IDRandom assigns each composite a random UUID.
	IDRandom
)

func (s IDScheme) String() string {
	switch s {
	case IDCounter:
		return "counter"
	case IDRandom:
		return "random"
	}
	return "unknown"
}

// ParseIDScheme resolves the name printed by IDScheme.String.
func ParseIDScheme(name string) (IDScheme, error) {
	switch name {
	case "", "counter":
		return IDCounter, nil
	case "random", "uuid":
		return IDRandom, nil
	}
	return IDCounter, fmt.Errorf("refcodec: unknown id scheme %q", name)
}

// encodeTable maps composite identities to ids for one Encode call.
type encodeTable struct {
	scheme IDScheme
	ids    map[handle]string
	minted map[string]struct{} // random ids already handed out
	count  int
}

func newEncodeTable(scheme IDScheme) *encodeTable {
	t := &encodeTable{scheme: scheme, ids: make(map[handle]string)}
	if scheme == IDRandom {
		t.minted = make(map[string]struct{})
	}
	return t
}

// mint returns an id not yet used in this table.
func (t *encodeTable) mint() string {
	t.count++
	if t.scheme != IDRandom {
		return strconv.Itoa(t.count)
	}
	for {
		id := uuid.NewString()
		if _, dup := t.minted[id]; !dup {
			t.minted[id] = struct{}{}
			return id
		}
	}
}

func (t *encodeTable) lookup(h handle) (string, bool) {
	id, ok := t.ids[h]
	return id, ok
}

func (t *encodeTable) insert(h handle, id string) { t.ids[h] = id }

// Len returns the number of ids minted so far.
func (t *encodeTable) Len() int { return t.count }

// decodeTable maps ids to the instances materialized for them in one Decode call.
type decodeTable struct {
	instances map[string]any
}

func newDecodeTable() *decodeTable {
	return &decodeTable{instances: make(map[string]any)}
}

// register records v under id. Ids must be non-empty and unique within a document.
func (t *decodeTable) register(id string, v any) error {
	if id == "" {
		return fmt.Errorf("%w: composite without id", ErrMalformedNode)
	}
	if _, dup := t.instances[id]; dup {
		return fmt.Errorf("%w: duplicate id %q", ErrMalformedNode, id)
	}
	t.instances[id] = v
	return nil
}

// resolve returns the instance registered under id. Only composites already
// materialized resolve: a ref must follow its target in pre-order.
func (t *decodeTable) resolve(id string) (any, error) {
	v, ok := t.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBrokenReference, id)
	}
	return v, nil
}

func (t *decodeTable) Len() int { return len(t.instances) }
