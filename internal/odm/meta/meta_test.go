package meta

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/field"
	"github.com/mantle-web/mantle/internal/odm/hooks"
	"github.com/mantle-web/mantle/internal/odm/query"
	"github.com/mantle-web/mantle/internal/odm/record"
	"github.com/mantle-web/mantle/internal/odm/store/memstore"
)

// person is the record type used across the gateway tests. It records the
// lifecycle events it receives so hook contracts are observable.
type person struct {
	record.Base
	ID   *field.ObjectIDField
	Name *field.StringField
	N    *field.IntField
	Nick *field.StringField

	events  []string
	hookErr error
}

func newPerson() *person {
	p := &person{
		ID:   field.NewObjectID("_id"),
		Name: field.NewString("name"),
		N:    field.NewInt("n"),
		Nick: field.NewString("nickname", field.AsOptional()),
	}
	p.Register(p.ID, p.Name, p.N, p.Nick)
	return p
}

func (p *person) HandleHook(_ context.Context, event hooks.Event) error {
	p.events = append(p.events, event.String())
	return p.hookErr
}

func newGateway(t *testing.T) (*Meta[*person], *memstore.Collection) {
	t.Helper()
	coll := memstore.New().Collection("people")
	return New[*person](coll, newPerson), coll
}

func makePerson(name string, n int32) *person {
	p := newPerson()
	p.ID.Set(document.NewObjectID())
	p.Name.Set(name)
	p.N.Set(n)
	return p
}

func TestSaveThenFindReproducesRecord(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 99)

	ok, err := m.Save(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, found, err := m.Find(ctx, p.ID.Value())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, record.Equal(p, loaded))
	assert.Equal(t, int32(99), loaded.N.Value())
	assert.False(t, loaded.Nick.IsSet(), "unset optional survives the round trip as unset")
}

func TestSaveHookOrderOnCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"before_save", "before_create", "after_create", "after_save"}, p.events)

	p.events = nil
	p.N.Set(2)
	_, err = m.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"before_save", "before_update", "after_update", "after_save"}, p.events,
		"a second save of the same identity takes the update path")
}

func TestSaveAbortsOnHookFailure(t *testing.T) {
	ctx := context.Background()
	m, coll := newGateway(t)

	p := makePerson("alice", 1)
	boom := errors.New("boom")
	p.hookErr = boom

	_, err := m.Save(ctx, p)
	require.Error(t, err)
	var cbErr *hooks.CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, hooks.BeforeSave, cbErr.Event)
	assert.Equal(t, 0, coll.Len(), "a failed before hook must prevent the persist")
}

func TestFindMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	_, found, err := m.Find(ctx, document.NewObjectID())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteThenFind(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)

	p.events = nil
	ok, err := m.Delete(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"before_delete", "after_delete"}, p.events)

	_, found, err := m.Find(ctx, p.ID.Value())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAbsentReportsSuccess(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("ghost", 1)
	ok, err := m.Delete(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok, "removing an absent record is indistinguishable from a real delete")
}

func TestFindHexStringResolvesObjectIDFirst(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)

	loaded, found, err := m.Find(ctx, p.ID.Value().Hex())
	require.NoError(t, err)
	require.True(t, found, "a 24-hex string finds the structured identity")
	assert.True(t, record.Equal(p, loaded))
}

func TestFindHexStringFallsBackToRawString(t *testing.T) {
	ctx := context.Background()
	coll := memstore.New().Collection("legacy")

	type legacy struct {
		record.Base
		ID   *field.StringField
		Name *field.StringField
	}
	newLegacy := func() *legacy {
		l := &legacy{ID: field.NewString("_id"), Name: field.NewString("name")}
		l.Register(l.ID, l.Name)
		return l
	}
	m := New[*legacy](coll, newLegacy)

	l := newLegacy()
	l.ID.Set("507f1f77bcf86cd799439011")
	l.Name.Set("legacy")
	_, err := m.Save(ctx, l)
	require.NoError(t, err)

	loaded, found, err := m.Find(ctx, "507f1f77bcf86cd799439011")
	require.NoError(t, err)
	require.True(t, found, "string-keyed rows are still reachable by their hex-shaped key")
	assert.Equal(t, "legacy", loaded.Name.Value())
}

func TestFindAllByIDs(t *testing.T) {
	ctx := context.Background()
	m, coll := newGateway(t)

	p1 := makePerson("alice", 1)
	p2 := makePerson("bob", 2)
	require.NoError(t, m.InsertAll(ctx, []*person{p1, p2}))

	results, err := m.FindAllByIDs(ctx, []interface{}{
		p1.ID.Value(), p1.ID.Value(), p2.ID.Value(), document.NewObjectID(),
	})
	require.NoError(t, err)
	assert.Len(t, results, 2, "duplicates coalesce and misses are omitted")

	calls := coll.FindCalls()
	results, err = m.FindAllByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, calls, coll.FindCalls(), "an empty id list makes no store round trip")
}

func TestFindAllWithOptions(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	require.NoError(t, m.InsertAll(ctx, []*person{
		makePerson("alice", 3),
		makePerson("bob", 1),
		makePerson("carol", 2),
	}))

	results, err := m.FindAll(ctx, nil,
		query.WithSort(document.Doc{{Key: "n", Value: int64(1)}}),
		query.Skip(1),
		query.Limit(1),
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "carol", results[0].Name.Value())
}

func TestFindAllSurfacesCancelledContext(t *testing.T) {
	m, _ := newGateway(t)

	_, err := m.Save(context.Background(), makePerson("alice", 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := m.FindAll(ctx, nil)
	require.Error(t, err, "cancellation must not masquerade as an empty result")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestDocumentUpdatesRunNoCallbacks(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)
	p.events = nil

	set := document.Doc{{Key: "$set", Value: document.Doc{{Key: "n", Value: int64(7)}}}}
	require.NoError(t, m.Update(ctx, identityPredicate(p.ID.Value()), set))
	assert.Empty(t, p.events, "document-only updates bypass lifecycle hooks")

	loaded, found, err := m.Find(ctx, p.ID.Value())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(7), loaded.N.Value())
}

func TestUpsertInsertsWhenNothingMatches(t *testing.T) {
	ctx := context.Background()
	m, coll := newGateway(t)

	pred := document.Doc{{Key: "name", Value: "ghost"}}
	set := document.Doc{{Key: "$set", Value: document.Doc{{Key: "n", Value: int64(1)}}}}
	require.NoError(t, m.Upsert(ctx, pred, set))
	assert.Equal(t, 1, coll.Len())
}

func TestUpdateRecordRunsUpdateHooks(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)
	p.events = nil

	p.N.Set(5)
	require.NoError(t, m.UpdateRecord(ctx, identityPredicate(p.ID.Value()), p))
	assert.Equal(t, []string{"before_update", "after_update"}, p.events)

	loaded, found, err := m.Find(ctx, p.ID.Value())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(5), loaded.N.Value())
}

func TestInsertAllCallbackOrder(t *testing.T) {
	ctx := context.Background()
	m, coll := newGateway(t)

	p1 := makePerson("alice", 1)
	p2 := makePerson("bob", 2)
	require.NoError(t, m.InsertAll(ctx, []*person{p1, p2}))

	assert.Equal(t, []string{"before_save", "after_save"}, p1.events)
	assert.Equal(t, []string{"before_save", "after_save"}, p2.events)
	assert.Equal(t, 2, coll.Len())
}

func TestBulkDeleteRunsNoCallbacks(t *testing.T) {
	ctx := context.Background()
	m, coll := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)
	p.events = nil

	require.NoError(t, m.BulkDelete(ctx, document.Doc{{Key: "name", Value: "alice"}}))
	assert.Equal(t, 0, coll.Len())
	assert.Empty(t, p.events)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	m, _ := newGateway(t)

	p := makePerson("alice", 1)
	_, err := m.Save(ctx, p)
	require.NoError(t, err)

	exists, err := m.Exists(ctx, p.ID.Value())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = m.Exists(ctx, document.NewObjectID())
	require.NoError(t, err)
	assert.False(t, exists)
}

// validatingField wraps a string field with a non-empty check.
type validatingField struct {
	*field.StringField
}

func (f *validatingField) Validate() error {
	if f.Value() == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	coll := memstore.New().Collection("people")

	type checked struct {
		record.Base
		ID   *field.ObjectIDField
		Name *validatingField
	}
	newChecked := func() *checked {
		c := &checked{
			ID:   field.NewObjectID("_id"),
			Name: &validatingField{StringField: field.NewString("name")},
		}
		c.Register(c.ID, c.Name)
		return c
	}
	m := New[*checked](coll, newChecked)

	c := newChecked()
	c.ID.Set(document.NewObjectID())

	err := m.Validate(ctx, c)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Errors, 1)
	assert.Equal(t, "name", vErr.Errors[0].Field)

	c.Name.Set("alice")
	assert.NoError(t, m.Validate(ctx, c))
}
