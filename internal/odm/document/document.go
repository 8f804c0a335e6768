// Package document defines the wire representation exchanged with the
// document store: an ordered set of named values, ordered lists, and the
// small set of wrapper-form scalars ($oid, $uuid, $dt, $regex) used for
// values plain JSON cannot carry.
package document

import (
	"time"

	"github.com/google/uuid"
)

// Elem is a single named value within a Doc.
type Elem struct {
	Key   string
	Value interface{}
}

// Doc is an ordered document. Order is significant: sort documents are
// applied key-by-key in the order given, and serialized output preserves
// insertion order.
type Doc []Elem

// List is an ordered list value within a document.
type List []interface{}

// Regex is the pattern scalar, serialized as {"$regex": p, "$flags": n}.
type Regex struct {
	Pattern string
	Flags   int32
}

// Get returns the value for key and whether it is present.
func (d Doc) Get(key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has returns true if the document contains key.
func (d Doc) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set replaces the value for key, or appends the element if key is absent.
func (d Doc) Set(key string, value interface{}) Doc {
	for i, e := range d {
		if e.Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, Elem{Key: key, Value: value})
}

// Delete removes key from the document if present.
func (d Doc) Delete(key string) Doc {
	for i, e := range d {
		if e.Key == key {
			return append(d[:i], d[i+1:]...)
		}
	}
	return d
}

// Keys returns the document's keys in order.
func (d Doc) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// Clone returns a deep copy of the document.
func (d Doc) Clone() Doc {
	if d == nil {
		return nil
	}
	out := make(Doc, len(d))
	for i, e := range d {
		out[i] = Elem{Key: e.Key, Value: cloneValue(e.Value)}
	}
	return out
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, v := range l {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Doc:
		return val.Clone()
	case List:
		return val.Clone()
	default:
		return v
	}
}

// Equal reports deep equality of two document values. Docs compare
// order-sensitively; times compare by instant.
func Equal(a, b interface{}) bool {
	switch av := a.(type) {
	case Doc:
		bv, ok := b.(Doc)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i].Key != bv[i].Key || !Equal(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case ObjectID:
		bv, ok := b.(ObjectID)
		return ok && av == bv
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		return ok && av == bv
	case Regex:
		bv, ok := b.(Regex)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return a == b
	}
}
