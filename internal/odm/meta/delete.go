package meta

import (
	"context"

	"go.uber.org/zap"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/hooks"
	"github.com/mantle-web/mantle/internal/odm/record"
)

// Delete removes the record by its identity value, running BeforeDelete
// and AfterDelete around the store round trip. It reports success once
// the remove call returns: deleting an already-absent record is not an
// error and is indistinguishable from a real delete here.
func (m *Meta[R]) Delete(ctx context.Context, r R) (bool, error) {
	idv, err := record.IdentityValue(r)
	if err != nil {
		return false, err
	}
	if err := hooks.Dispatch(ctx, hooks.BeforeDelete, r); err != nil {
		return false, err
	}
	if err := m.coll.Remove(ctx, m.wc, identityPredicate(idv)); err != nil {
		return false, err
	}
	m.log.Debug("delete",
		zap.String("collection", m.coll.Name()),
		zap.Any("id", idv))
	if err := hooks.Dispatch(ctx, hooks.AfterDelete, r); err != nil {
		return false, err
	}
	return true, nil
}

// BulkDelete removes every document matching the predicate. No lifecycle
// callbacks run.
func (m *Meta[R]) BulkDelete(ctx context.Context, predicate document.Doc) error {
	if err := m.coll.Remove(ctx, m.wc, predicate); err != nil {
		return err
	}
	m.log.Debug("bulk delete", zap.String("collection", m.coll.Name()))
	return nil
}
