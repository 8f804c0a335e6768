package meta

import (
	"context"

	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/hooks"
	"github.com/mantle-web/mantle/internal/odm/record"
	"github.com/mantle-web/mantle/internal/odm/store"
)

// Save persists the record with the gateway's default write concern.
func (m *Meta[R]) Save(ctx context.Context, r R) (bool, error) {
	return m.SaveWith(ctx, r, m.wc)
}

// SaveWith upserts the record by its document identity: insert when the
// identity is new, replace when it already exists. Hooks run in the fixed
// order BeforeSave, BeforeCreate|BeforeUpdate, persist, AfterCreate|
// AfterUpdate, AfterSave; the create path is selected by whether the
// identity existed in the store before this save. Returns whether the
// store acknowledged the write per the supplied concern.
func (m *Meta[R]) SaveWith(ctx context.Context, r R, wc store.WriteConcern) (bool, error) {
	idv, err := record.IdentityValue(r)
	if err != nil {
		return false, err
	}
	existed, err := m.Exists(ctx, idv)
	if err != nil {
		return false, err
	}

	if err := hooks.Dispatch(ctx, hooks.BeforeSave, r); err != nil {
		return false, err
	}
	beforeEvent, afterEvent := hooks.BeforeCreate, hooks.AfterCreate
	if existed {
		beforeEvent, afterEvent = hooks.BeforeUpdate, hooks.AfterUpdate
	}
	if err := hooks.Dispatch(ctx, beforeEvent, r); err != nil {
		return false, err
	}

	doc, err := record.ToDocument(r)
	if err != nil {
		return false, err
	}
	if err := m.coll.Save(ctx, wc, doc); err != nil {
		return false, err
	}
	m.log.Debug("save",
		zap.String("collection", m.coll.Name()),
		zap.Any("id", idv),
		zap.Bool("existed", existed))

	if err := hooks.Dispatch(ctx, afterEvent, r); err != nil {
		return false, err
	}
	if err := hooks.Dispatch(ctx, hooks.AfterSave, r); err != nil {
		return false, err
	}
	return true, nil
}

// InsertAll persists the records in one batched insert. BeforeSave runs
// on every record before the batch and AfterSave after it; a store-level
// failure of the batch surfaces to the caller with no rollback of
// callbacks that already ran.
func (m *Meta[R]) InsertAll(ctx context.Context, recs []R) error {
	return m.InsertAllWith(ctx, recs, m.wc)
}

// InsertAllWith is InsertAll under an explicit write concern.
func (m *Meta[R]) InsertAllWith(ctx context.Context, recs []R, wc store.WriteConcern) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]document.Doc, 0, len(recs))
	for _, r := range recs {
		if err := hooks.Dispatch(ctx, hooks.BeforeSave, r); err != nil {
			return err
		}
		doc, err := record.ToDocument(r)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if err := m.coll.Insert(ctx, wc, docs...); err != nil {
		return err
	}
	m.log.Debug("insert all",
		zap.String("collection", m.coll.Name()),
		zap.Int("count", len(docs)))
	for _, r := range recs {
		if err := hooks.Dispatch(ctx, hooks.AfterSave, r); err != nil {
			return err
		}
	}
	return nil
}
