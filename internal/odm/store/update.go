package store

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/mantle-web/mantle/internal/odm/document"
)

// ApplyUpdate applies the shared update semantics to one document: an
// update led by $set merges the named fields into the target, anything
// else replaces the target wholesale while preserving its _id.
func ApplyUpdate(target, update document.Doc) document.Doc {
	if setDoc, ok := update.Get("$set"); ok {
		if fields, ok := setDoc.(document.Doc); ok {
			out := target.Clone()
			for _, e := range fields {
				out = out.Set(e.Key, e.Value)
			}
			return out
		}
	}
	out := update.Clone()
	if id, ok := target.Get("_id"); ok && !out.Has("_id") {
		out = append(document.Doc{{Key: "_id", Value: id}}, out...)
	}
	return out
}

// UpsertSeed builds the document inserted when an upsert matches nothing:
// the predicate's plain equality fields with the update applied, given an
// _id when the result still has none. Operator conditions describe what
// was searched for, not a storable value, and are excluded.
func UpsertSeed(predicate, update document.Doc) document.Doc {
	base := document.Doc{}
	for _, e := range predicate {
		if opDoc, ok := e.Value.(document.Doc); ok && isOperatorDoc(opDoc) {
			continue
		}
		base = append(base, document.Elem{Key: e.Key, Value: e.Value})
	}
	seed := ApplyUpdate(base.Clone(), update)
	if !seed.Has("_id") {
		seed = seed.Set("_id", document.NewObjectID())
	}
	return seed
}

// IdentityText renders an identity value as the canonical text key used
// by stores that index documents by a string primary key. The boolean is
// false for values that cannot serve as identities.
func IdentityText(v interface{}) (string, bool) {
	switch id := v.(type) {
	case document.ObjectID:
		return id.Hex(), true
	case uuid.UUID:
		return id.String(), true
	case string:
		return id, true
	case int64:
		return strconv.FormatInt(id, 10), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	default:
		return "", false
	}
}

// IdentityOnly reports whether the predicate is a plain equality match on
// _id alone, and returns that identity value.
func IdentityOnly(predicate document.Doc) (interface{}, bool) {
	if len(predicate) != 1 || predicate[0].Key != "_id" {
		return nil, false
	}
	if _, isDoc := predicate[0].Value.(document.Doc); isDoc {
		return nil, false
	}
	return predicate[0].Value, true
}
