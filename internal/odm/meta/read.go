package meta

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/query"
	"github.com/mantle-web/mantle/internal/odm/record"
	"github.com/mantle-web/mantle/internal/odm/store"
)

// Find looks a record up by its identity value. The boolean reports
// presence; a missing record is not an error.
//
// A string identity that is lexically a 24-hex-character identifier is
// tried as a structured ObjectID first and falls back to a raw string
// match only when that lookup finds nothing. Legacy string-keyed
// collections depend on this precedence.
func (m *Meta[R]) Find(ctx context.Context, id interface{}) (R, bool, error) {
	if s, ok := id.(string); ok && document.IsHexObjectID(s) {
		oid, err := document.ObjectIDFromHex(s)
		if err == nil {
			r, found, err := m.FindOne(ctx, identityPredicate(oid))
			if err != nil || found {
				return r, found, err
			}
		}
	}
	return m.FindOne(ctx, identityPredicate(id))
}

// FindOne returns the first record matching the predicate. The boolean
// reports presence.
func (m *Meta[R]) FindOne(ctx context.Context, predicate document.Doc) (R, bool, error) {
	var zero R
	doc, err := m.coll.FindOne(ctx, predicate, nil)
	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return zero, false, nil
		}
		return zero, false, err
	}
	r, err := m.decode(doc)
	if err != nil {
		return zero, false, err
	}
	return r, true, nil
}

// FindAll runs a predicate query with optional projection, sort, limit,
// and skip modifiers and materializes the full result set. Callers must
// bound result size themselves.
func (m *Meta[R]) FindAll(ctx context.Context, predicate document.Doc, opts ...query.Option) ([]R, error) {
	p := query.Apply(opts...)
	cur, err := m.coll.Find(ctx, store.Query{
		Predicate:  predicate,
		Projection: p.Projection,
		Sort:       p.Sort,
		Limit:      p.Limit,
		Skip:       p.Skip,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	results := []R{}
	for cur.Next(ctx) {
		r, err := m.decode(cur.Doc())
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	m.log.Debug("find all",
		zap.String("collection", m.coll.Name()),
		zap.Int("matches", len(results)))
	return results, nil
}

// FindAllByIDs looks up many identity values in one round trip. Duplicate
// ids are coalesced before the query, misses are silently omitted, and an
// empty input returns an empty result with no store round trip.
func (m *Meta[R]) FindAllByIDs(ctx context.Context, ids []interface{}) ([]R, error) {
	if len(ids) == 0 {
		return []R{}, nil
	}
	unique := make(document.List, 0, len(ids))
	for _, id := range ids {
		dup := false
		for _, seen := range unique {
			if document.Equal(seen, id) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, id)
		}
	}
	predicate := document.Doc{{
		Key:   record.IdentityKey,
		Value: document.Doc{{Key: "$in", Value: unique}},
	}}
	return m.FindAll(ctx, predicate)
}

// Exists reports whether a document with the given identity is stored.
func (m *Meta[R]) Exists(ctx context.Context, id interface{}) (bool, error) {
	_, err := m.coll.FindOne(ctx, identityPredicate(id), identityProjection)
	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
