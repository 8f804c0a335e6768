// Package reference models foreign-key-style associations: a scalar field
// holding a foreign identity value composed with a lazily cached, race-free
// resolver for the target record.
package reference

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/field"
	"github.com/mantle-web/mantle/internal/web/form"
)

// Key is the closed set of identity scalar types a reference can hold.
// Supporting a new identity type means widening this constraint, not
// changing the resolution algorithm.
type Key interface {
	~string | ~int32 | ~int64 | document.ObjectID | uuid.UUID
}

// LookupFunc finds the target record for a key. The boolean reports
// presence; a missing target is not an error.
type LookupFunc[K Key, R any] func(ctx context.Context, key K) (R, bool, error)

// OptionSource supplies the candidate set for a selection UI.
type OptionSource[K Key] interface {
	SelectOptions(ctx context.Context) ([]form.Option[K], error)
}

// OptionSourceFunc adapts a function to OptionSource.
type OptionSourceFunc[K Key] func(ctx context.Context) ([]form.Option[K], error)

// SelectOptions implements OptionSource.
func (f OptionSourceFunc[K]) SelectOptions(ctx context.Context) ([]form.Option[K], error) {
	return f(ctx)
}

// resolveState is the explicit cache cell state: the resolve-once contract
// is enforced by holding the mutex across the unresolved -> resolving ->
// resolved transition.
type resolveState int

const (
	stateUnresolved resolveState = iota
	stateResolving
	stateResolved
)

// Ref is a reference field: a scalar key field plus a cached resolution of
// the target record. Resolution happens at most once per instance unless
// the cache is explicitly primed or reset, and is safe under concurrent
// first access.
type Ref[K Key, R any] struct {
	key       field.Scalar[K]
	lookup    LookupFunc[K, R]
	source    OptionSource[K]
	noneLabel string

	mu    sync.Mutex
	state resolveState
	obj   R
	found bool
}

// Option configures a Ref.
type Option[K Key, R any] func(*Ref[K, R])

// WithOptionSource installs the candidate supplier for SelectOptions.
func WithOptionSource[K Key, R any](src OptionSource[K]) Option[K, R] {
	return func(r *Ref[K, R]) {
		r.source = src
	}
}

// WithNoneLabel sets the label of the "no selection" entry prepended for
// optional key fields. The default label is empty.
func WithNoneLabel[K Key, R any](label string) Option[K, R] {
	return func(r *Ref[K, R]) {
		r.noneLabel = label
	}
}

// New creates a reference over the given key field and lookup.
func New[K Key, R any](key field.Scalar[K], lookup LookupFunc[K, R], opts ...Option[K, R]) *Ref[K, R] {
	r := &Ref[K, R]{key: key, lookup: lookup}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// KeyField returns the scalar field holding the foreign identity value.
func (r *Ref[K, R]) KeyField() field.Scalar[K] {
	return r.key
}

// SetKey assigns the foreign identity value and discards any cached
// resolution.
func (r *Ref[K, R]) SetKey(k K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.key.Set(k)
	r.resetLocked()
}

// Resolve returns the target record for the current key value. The first
// call performs at most one store lookup (none when the key is unset) and
// caches the outcome, including the absent outcome; subsequent calls never
// query again. Concurrent first callers all observe the same outcome.
// Lookup errors are returned without caching, so a later call retries.
func (r *Ref[K, R]) Resolve(ctx context.Context) (R, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateResolved {
		return r.obj, r.found, nil
	}

	key, set := r.key.Get()
	if !set {
		var zero R
		r.obj, r.found = zero, false
		r.state = stateResolved
		return r.obj, r.found, nil
	}

	r.state = stateResolving
	obj, found, err := r.lookup(ctx, key)
	if err != nil {
		r.state = stateUnresolved
		var zero R
		return zero, false, err
	}
	r.obj, r.found = obj, found
	r.state = stateResolved
	return r.obj, r.found, nil
}

// Cached reports whether resolution has already occurred.
func (r *Ref[K, R]) Cached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateResolved
}

// Prime force-sets the cached outcome without querying and marks the
// reference cached. Batched joins use it to avoid N+1 lookups.
func (r *Ref[K, R]) Prime(obj R, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obj, r.found = obj, found
	r.state = stateResolved
}

// Reset discards the cached outcome so the next Resolve queries again.
func (r *Ref[K, R]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Ref[K, R]) resetLocked() {
	var zero R
	r.obj, r.found = zero, false
	r.state = stateUnresolved
}

// SelectOptions returns the candidate (value, label) list for a selection
// UI. When the key field is optional, a "no selection" entry is prepended.
func (r *Ref[K, R]) SelectOptions(ctx context.Context) ([]form.Option[K], error) {
	if r.source == nil {
		return nil, nil
	}
	opts, err := r.source.SelectOptions(ctx)
	if err != nil {
		return nil, err
	}
	if r.key.Optional() {
		opts = append([]form.Option[K]{form.NoSelection[K](r.noneLabel)}, opts...)
	}
	return opts, nil
}
