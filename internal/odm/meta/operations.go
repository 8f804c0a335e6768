// Package meta provides the per-record-type collection gateway: CRUD and
// query operations against one named collection, wrapped with lifecycle
// hook dispatch. A gateway is an explicit, constructed object bound to a
// store collection and a record factory; there is no ambient registry.
package meta

import (
	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/record"
	"github.com/mantle-web/mantle/internal/odm/store"
)

// Meta is the collection gateway for one record type. The factory
// materializes fresh record instances when deserializing documents.
type Meta[R record.Record] struct {
	coll    store.Collection
	factory func() R
	log     *zap.Logger
	wc      store.WriteConcern
}

// Option configures a gateway.
type Option func(*settings)

type settings struct {
	log *zap.Logger
	wc  store.WriteConcern
}

// WithLogger sets the gateway's logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *settings) {
		s.log = log
	}
}

// WithWriteConcern sets the default write concern for record-based writes.
func WithWriteConcern(wc store.WriteConcern) Option {
	return func(s *settings) {
		s.wc = wc
	}
}

// New creates a gateway over the given collection.
func New[R record.Record](coll store.Collection, factory func() R, opts ...Option) *Meta[R] {
	s := settings{
		log: zap.NewNop(),
		wc:  store.Acknowledged,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Meta[R]{
		coll:    coll,
		factory: factory,
		log:     s.log,
		wc:      s.wc,
	}
}

// Collection returns the underlying store collection.
func (m *Meta[R]) Collection() store.Collection {
	return m.coll
}

// WriteConcern returns the gateway's default write concern.
func (m *Meta[R]) WriteConcern() store.WriteConcern {
	return m.wc
}

// decode materializes a record from a stored document.
func (m *Meta[R]) decode(doc document.Doc) (R, error) {
	r := m.factory()
	if err := record.FromDocument(r, doc); err != nil {
		var zero R
		return zero, err
	}
	return r, nil
}

// identityPredicate builds the single-record lookup predicate.
func identityPredicate(id interface{}) document.Doc {
	return document.Doc{{Key: record.IdentityKey, Value: id}}
}

var identityProjection = document.Doc{{Key: record.IdentityKey, Value: int64(1)}}
