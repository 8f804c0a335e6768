// Package store defines the document-store capability the mapper is built
// over: open a named collection, run finds with predicate/projection/sort/
// skip/limit, and execute writes under a durability policy. Failures from
// a concrete store pass through unchanged; this layer has no retry policy.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mantle-web/mantle/internal/odm/document"
)

var (
	// ErrNoDocument signals that a single-document find matched nothing.
	// The gateway converts it into an absent result rather than an error.
	ErrNoDocument = errors.New("no matching document")

	// ErrDuplicateKey signals an identity collision on insert.
	ErrDuplicateKey = errors.New("duplicate key")
)

// WriteConcern is the opaque durability/acknowledgement policy forwarded
// to the underlying store unchanged. The mapper does not interpret it.
type WriteConcern struct {
	W        int
	Journal  bool
	WTimeout time.Duration
}

// Acknowledged waits for the store to confirm the write.
var Acknowledged = WriteConcern{W: 1}

// Unacknowledged fires and forgets; such writes report success without
// confirmation.
var Unacknowledged = WriteConcern{W: 0}

// Query describes one find against a collection.
type Query struct {
	Predicate  document.Doc
	Projection document.Doc
	Sort       document.Doc
	Limit      int64
	Skip       int64
}

// UpdateOptions carries the explicit multi/upsert flags of an update.
type UpdateOptions struct {
	Upsert bool
	Multi  bool
}

// Cursor iterates the documents of a find result.
type Cursor interface {
	// Next advances the cursor and reports whether a document is available.
	Next(ctx context.Context) bool
	// Doc returns the current document.
	Doc() document.Doc
	// Err returns the first error encountered during iteration.
	Err() error
	// Close releases the cursor's resources.
	Close() error
}

// Collection is one named collection within a store. All operations are
// synchronous and block until the round trip completes; timeouts are the
// concrete store client's responsibility.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// FindOne returns the first document matching the predicate, or
	// ErrNoDocument when nothing matches.
	FindOne(ctx context.Context, predicate, projection document.Doc) (document.Doc, error)

	// Find runs a query and returns a cursor over the matches.
	Find(ctx context.Context, q Query) (Cursor, error)

	// Insert adds the given documents in one batch. The batch is not
	// transactional: a failure may leave earlier documents inserted.
	Insert(ctx context.Context, wc WriteConcern, docs ...document.Doc) error

	// Save upserts a document by its _id: insert when absent, replace
	// when present.
	Save(ctx context.Context, wc WriteConcern, doc document.Doc) error

	// Update applies the update document to matching documents with the
	// given multi/upsert flags. An update document led by $set merges
	// fields; anything else replaces the matched document wholesale
	// (preserving _id).
	Update(ctx context.Context, wc WriteConcern, predicate, update document.Doc, opts UpdateOptions) error

	// Remove deletes every document matching the predicate. Removing
	// nothing is not an error.
	Remove(ctx context.Context, wc WriteConcern, predicate document.Doc) error
}

// SliceCursor adapts an in-memory result set to the Cursor interface.
type SliceCursor struct {
	docs []document.Doc
	pos  int
	err  error
}

// NewSliceCursor creates a cursor over the given documents.
func NewSliceCursor(docs []document.Doc) *SliceCursor {
	return &SliceCursor{docs: docs, pos: -1}
}

// Next implements Cursor. A cancelled context stops iteration and is
// reported by Err, so callers cannot mistake it for an exhausted result.
func (c *SliceCursor) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	c.pos++
	return c.pos < len(c.docs)
}

// Doc implements Cursor.
func (c *SliceCursor) Doc() document.Doc {
	return c.docs[c.pos]
}

// Err implements Cursor.
func (c *SliceCursor) Err() error { return c.err }

// Close implements Cursor.
func (c *SliceCursor) Close() error { return nil }
