package meta

import (
	"context"

	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/hooks"
	"github.com/mantle-web/mantle/internal/odm/record"
	"github.com/mantle-web/mantle/internal/odm/store"
)

// Update applies a document-only update to the first match. Document-only
// update variants invoke no lifecycle callbacks; only the record variants
// (Save, UpdateRecord) do. Callers relying on hooks must not reach for
// these.
func (m *Meta[R]) Update(ctx context.Context, predicate, update document.Doc) error {
	return m.updateWith(ctx, predicate, update, store.UpdateOptions{})
}

// UpdateMulti applies a document-only update to every match. No lifecycle
// callbacks run.
func (m *Meta[R]) UpdateMulti(ctx context.Context, predicate, update document.Doc) error {
	return m.updateWith(ctx, predicate, update, store.UpdateOptions{Multi: true})
}

// Upsert applies a document-only update to the first match, inserting a
// document when nothing matches. No lifecycle callbacks run.
func (m *Meta[R]) Upsert(ctx context.Context, predicate, update document.Doc) error {
	return m.updateWith(ctx, predicate, update, store.UpdateOptions{Upsert: true})
}

func (m *Meta[R]) updateWith(ctx context.Context, predicate, update document.Doc, opts store.UpdateOptions) error {
	if err := m.coll.Update(ctx, m.wc, predicate, update, opts); err != nil {
		return err
	}
	m.log.Debug("update",
		zap.String("collection", m.coll.Name()),
		zap.Bool("multi", opts.Multi),
		zap.Bool("upsert", opts.Upsert))
	return nil
}

// UpdateRecord replaces the first match with the record's document. As a
// record-deserializing variant it runs the BeforeUpdate and AfterUpdate
// hooks around the store round trip.
func (m *Meta[R]) UpdateRecord(ctx context.Context, predicate document.Doc, r R) error {
	if err := hooks.Dispatch(ctx, hooks.BeforeUpdate, r); err != nil {
		return err
	}
	doc, err := record.ToDocument(r)
	if err != nil {
		return err
	}
	if err := m.updateWith(ctx, predicate, doc, store.UpdateOptions{}); err != nil {
		return err
	}
	return hooks.Dispatch(ctx, hooks.AfterUpdate, r)
}
