// Package memstore provides an in-memory implementation of the store
// capability, used in tests and as the reference for predicate semantics.
// Documents are cloned on the way in and out so callers never share
// backing storage with the store.
package memstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/store"
)

// Store is a set of named in-memory collections.
type Store struct {
	mu    sync.Mutex
	colls map[string]*Collection
}

// New creates an empty store.
func New() *Store {
	return &Store{colls: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first use.
func (s *Store) Collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colls[name]
	if !ok {
		c = &Collection{name: name}
		s.colls[name] = c
	}
	return c
}

// Collection is one in-memory collection. Documents keep insertion order,
// which is the store-default result order when no sort is supplied.
type Collection struct {
	mu   sync.RWMutex
	name string
	docs []document.Doc

	findCalls atomic.Int64
}

var _ store.Collection = (*Collection)(nil)

// Name implements store.Collection.
func (c *Collection) Name() string { return c.name }

// FindCalls returns how many find round trips the collection has served.
// Tests use it to verify resolve-once and no-round-trip contracts.
func (c *Collection) FindCalls() int64 {
	return c.findCalls.Load()
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// FindOne implements store.Collection.
func (c *Collection) FindOne(ctx context.Context, predicate, projection document.Doc) (document.Doc, error) {
	c.findCalls.Add(1)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.docs {
		if store.Matches(doc, predicate) {
			return store.ApplyProjection(doc.Clone(), projection), nil
		}
	}
	return nil, store.ErrNoDocument
}

// Find implements store.Collection.
func (c *Collection) Find(ctx context.Context, q store.Query) (store.Cursor, error) {
	c.findCalls.Add(1)
	c.mu.RLock()
	var matches []document.Doc
	for _, doc := range c.docs {
		if store.Matches(doc, q.Predicate) {
			matches = append(matches, doc.Clone())
		}
	}
	c.mu.RUnlock()

	store.SortDocs(matches, q.Sort)
	matches = store.ApplyWindow(matches, q.Skip, q.Limit)
	for i, doc := range matches {
		matches[i] = store.ApplyProjection(doc, q.Projection)
	}
	return store.NewSliceCursor(matches), nil
}

// Insert implements store.Collection.
func (c *Collection) Insert(ctx context.Context, wc store.WriteConcern, docs ...document.Doc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range docs {
		if id, ok := doc.Get("_id"); ok && c.indexOfLocked(id) >= 0 {
			return store.ErrDuplicateKey
		}
		c.docs = append(c.docs, doc.Clone())
	}
	return nil
}

// Save implements store.Collection.
func (c *Collection) Save(ctx context.Context, wc store.WriteConcern, doc document.Doc) error {
	id, ok := doc.Get("_id")
	if !ok {
		return store.ErrNoDocument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOfLocked(id); i >= 0 {
		c.docs[i] = doc.Clone()
		return nil
	}
	c.docs = append(c.docs, doc.Clone())
	return nil
}

// Update implements store.Collection.
func (c *Collection) Update(ctx context.Context, wc store.WriteConcern, predicate, update document.Doc, opts store.UpdateOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	matched := false
	for i, doc := range c.docs {
		if !store.Matches(doc, predicate) {
			continue
		}
		c.docs[i] = store.ApplyUpdate(doc, update)
		matched = true
		if !opts.Multi {
			break
		}
	}
	if !matched && opts.Upsert {
		c.docs = append(c.docs, store.UpsertSeed(predicate, update))
	}
	return nil
}

// Remove implements store.Collection.
func (c *Collection) Remove(ctx context.Context, wc store.WriteConcern, predicate document.Doc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.docs[:0]
	for _, doc := range c.docs {
		if !store.Matches(doc, predicate) {
			kept = append(kept, doc)
		}
	}
	c.docs = kept
	return nil
}

func (c *Collection) indexOfLocked(id interface{}) int {
	for i, doc := range c.docs {
		if existing, ok := doc.Get("_id"); ok && document.Equal(existing, id) {
			return i
		}
	}
	return -1
}
