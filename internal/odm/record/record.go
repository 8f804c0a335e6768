// Package record defines the record abstraction mapped to stored
// documents: an ordered set of fields with a single identity field, plus
// document and JSON conversion helpers.
package record

import (
	"errors"
	"fmt"

	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/field"
)

// IdentityKey is the document key of every record's identity field.
const IdentityKey = "_id"

// ErrNoIdentity is returned when a record type declares no _id field.
var ErrNoIdentity = errors.New("record has no identity field")

// Record is an in-memory, schema-typed entity mapped to one stored
// document. Fields are returned in declaration order.
type Record interface {
	field.Composite
}

// Base provides field registration plumbing for record types. Embed it and
// register fields in declaration order from the type's constructor.
type Base struct {
	fields []field.Field
}

// Register appends fields in declaration order.
func (b *Base) Register(fields ...field.Field) {
	b.fields = append(b.fields, fields...)
}

// Fields implements field.Composite.
func (b *Base) Fields() []field.Field {
	return b.fields
}

// Identity returns the record's identity field.
func Identity(r Record) (field.Field, error) {
	for _, f := range r.Fields() {
		if f.Name() == IdentityKey {
			return f, nil
		}
	}
	return nil, ErrNoIdentity
}

// IdentityValue returns the record's identity value in document form.
func IdentityValue(r Record) (interface{}, error) {
	f, err := Identity(r)
	if err != nil {
		return nil, err
	}
	v, ok := f.DocValue()
	if !ok {
		return nil, fmt.Errorf("record: identity field %s has no value", f.Name())
	}
	return v, nil
}

// ToDocument serializes the record into its wire document.
func ToDocument(r Record) (document.Doc, error) {
	return field.ToDoc(r)
}

// FromDocument populates the record's fields from a stored document.
func FromDocument(r Record, d document.Doc) error {
	return field.FromDoc(r, d)
}

// MarshalJSON serializes the record to JSON using the wrapper-form
// convention of the document package.
func MarshalJSON(r Record) ([]byte, error) {
	doc, err := ToDocument(r)
	if err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// UnmarshalJSON populates the record from JSON produced by MarshalJSON.
// Round-tripping reproduces an equal record for all supported field types.
func UnmarshalJSON(r Record, data []byte) error {
	var doc document.Doc
	if err := doc.UnmarshalJSON(data); err != nil {
		return err
	}
	return FromDocument(r, doc)
}

// Equal reports whether two records serialize to equal documents.
func Equal(a, b Record) bool {
	da, err := ToDocument(a)
	if err != nil {
		return false
	}
	db, err := ToDocument(b)
	if err != nil {
		return false
	}
	return document.Equal(da, db)
}
