package store

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mantle-web/mantle/internal/odm/document"
)

// Matches reports whether a document satisfies a predicate. Predicate
// entries are equality matches unless the value is an operator document
// ($in, $ne, $exists, $gt, $gte, $lt, $lte). An empty predicate matches
// everything.
func Matches(doc, predicate document.Doc) bool {
	for _, cond := range predicate {
		actual, present := doc.Get(cond.Key)
		if opDoc, ok := cond.Value.(document.Doc); ok && isOperatorDoc(opDoc) {
			if !matchOperators(actual, present, opDoc) {
				return false
			}
			continue
		}
		if !present || !document.Equal(actual, cond.Value) {
			return false
		}
	}
	return true
}

func isOperatorDoc(d document.Doc) bool {
	return len(d) > 0 && strings.HasPrefix(d[0].Key, "$")
}

func matchOperators(actual interface{}, present bool, ops document.Doc) bool {
	for _, op := range ops {
		switch op.Key {
		case "$exists":
			want, _ := op.Value.(bool)
			if present != want {
				return false
			}
		case "$in":
			list, ok := op.Value.(document.List)
			if !ok || !present {
				return false
			}
			found := false
			for _, candidate := range list {
				if document.Equal(actual, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$ne":
			if present && document.Equal(actual, op.Value) {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			if !present {
				return false
			}
			cmp, ok := Compare(actual, op.Value)
			if !ok {
				return false
			}
			switch op.Key {
			case "$gt":
				if cmp <= 0 {
					return false
				}
			case "$gte":
				if cmp < 0 {
					return false
				}
			case "$lt":
				if cmp >= 0 {
					return false
				}
			case "$lte":
				if cmp > 0 {
					return false
				}
			}
		default:
			// Unknown operators never match.
			return false
		}
	}
	return true
}

// Compare orders two scalar document values. The second return is false
// when the values are not comparable.
func Compare(a, b interface{}) (int, bool) {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case document.ObjectID:
		bv, ok := b.(document.ObjectID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.Hex(), bv.Hex()), true
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return strings.Compare(av.String(), bv.String()), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// SortDocs stable-sorts documents by a sort document applied verbatim:
// each key in order, 1 ascending and -1 descending.
func SortDocs(docs []document.Doc, sortDoc document.Doc) {
	if len(sortDoc) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range sortDoc {
			dir := int64(1)
			if n, ok := key.Value.(int64); ok {
				dir = n
			}
			av, _ := docs[i].Get(key.Key)
			bv, _ := docs[j].Get(key.Key)
			cmp, ok := Compare(av, bv)
			if !ok || cmp == 0 {
				continue
			}
			if dir < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// ApplyProjection keeps only the projected fields of a document. The _id
// field is always retained. An empty projection returns the document
// unchanged.
func ApplyProjection(doc, projection document.Doc) document.Doc {
	if len(projection) == 0 {
		return doc
	}
	out := document.Doc{}
	for _, e := range doc {
		if e.Key == "_id" || projection.Has(e.Key) {
			out = append(out, e)
		}
	}
	return out
}

// ApplyWindow applies skip and limit to an ordered result set.
func ApplyWindow(docs []document.Doc, skip, limit int64) []document.Doc {
	if skip > 0 {
		if skip >= int64(len(docs)) {
			return nil
		}
		docs = docs[skip:]
	}
	if limit > 0 && limit < int64(len(docs)) {
		docs = docs[:limit]
	}
	return docs
}
