package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantle-web/mantle/internal/odm/document"
)

// address is a nested sub-object used across the composite tests.
type address struct {
	Street *StringField
	City   *StringField
}

func newAddress() *address {
	return &address{
		Street: NewString("street"),
		City:   NewString("city"),
	}
}

func (a *address) Fields() []Field {
	return []Field{a.Street, a.City}
}

type person struct {
	ID    *StringField
	Name  *StringField
	Nick  *StringField
	Home  *SubDocField
	Stops *SubListField
	Attrs *MapField
}

func newPerson() *person {
	p := &person{
		ID:   NewString("_id"),
		Name: NewString("name"),
		Nick: NewString("nickname", AsOptional()),
	}
	p.Home = NewSubDoc("home", newAddress())
	p.Stops = NewSubList("stops", func() Composite { return newAddress() }, AsOptional())
	p.Attrs = NewMap("attrs", AsOptional())
	return p
}

func (p *person) Fields() []Field {
	return []Field{p.ID, p.Name, p.Nick, p.Home, p.Stops, p.Attrs}
}

func TestToDocOmitsUnsetOptionals(t *testing.T) {
	p := newPerson()
	p.ID.Set("p1")
	p.Name.Set("alice")

	doc, err := ToDoc(p)
	require.NoError(t, err)

	assert.False(t, doc.Has("nickname"))
	assert.False(t, doc.Has("stops"))
	assert.False(t, doc.Has("attrs"))
	assert.True(t, doc.Has("home"), "mandatory sub-documents always serialize")
}

func TestFromDocMissingMandatoryFails(t *testing.T) {
	p := newPerson()
	err := FromDoc(p, document.Doc{{Key: "_id", Value: "p1"}})
	var deserr *DeserializationError
	require.ErrorAs(t, err, &deserr)
	assert.Equal(t, "name", deserr.Field)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestFromDocClearsAbsentOptionals(t *testing.T) {
	p := newPerson()
	p.Nick.Set("ali")

	err := FromDoc(p, document.Doc{
		{Key: "_id", Value: "p1"},
		{Key: "name", Value: "alice"},
		{Key: "home", Value: document.Doc{
			{Key: "street", Value: "1 Main"},
			{Key: "city", Value: "Springfield"},
		}},
	})
	require.NoError(t, err)
	assert.False(t, p.Nick.IsSet(), "absent optional loads as unset, not present-null")
}

func TestSubDocRoundTrip(t *testing.T) {
	p := newPerson()
	p.ID.Set("p1")
	p.Name.Set("alice")
	home := p.Home.Value().(*address)
	home.Street.Set("1 Main")
	home.City.Set("Springfield")
	p.Home.MarkSet()

	doc, err := ToDoc(p)
	require.NoError(t, err)

	q := newPerson()
	require.NoError(t, FromDoc(q, doc))
	street := q.Home.Value().(*address).Street.Value()
	assert.Equal(t, "1 Main", street)
}

func TestSubListRoundTrip(t *testing.T) {
	p := newPerson()
	p.ID.Set("p1")
	p.Name.Set("alice")

	stop := newAddress()
	stop.Street.Set("2 Side")
	stop.City.Set("Shelbyville")
	p.Stops.Append(stop)

	doc, err := ToDoc(p)
	require.NoError(t, err)

	q := newPerson()
	require.NoError(t, FromDoc(q, doc))
	items := q.Stops.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "2 Side", items[0].(*address).Street.Value())
}

func TestMapFieldSortsKeys(t *testing.T) {
	m := NewMap("attrs")
	m.Set(map[string]interface{}{"z": int64(1), "a": int64(2)})

	v, include := m.DocValue()
	require.True(t, include)
	doc := v.(document.Doc)
	assert.Equal(t, []string{"a", "z"}, doc.Keys())
}

func TestSubListRejectsWrongShape(t *testing.T) {
	p := newPerson()
	err := p.Stops.SetDocValue(document.List{"not a doc"})
	var deserr *DeserializationError
	assert.ErrorAs(t, err, &deserr)
}
