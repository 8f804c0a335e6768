package field

import (
	"fmt"
	"sort"

	"github.com/mantle-web/mantle/internal/odm/document"
)

// Composite is the minimal record capability: an ordered set of fields.
// Records and nested sub-objects both satisfy it.
type Composite interface {
	Fields() []Field
}

// Embedded is implemented by composite fields that own nested composites.
// The lifecycle dispatcher uses it to traverse into sub-objects.
type Embedded interface {
	EmbeddedComposites() []Composite
}

// ToDoc serializes a composite into a document, walking fields in
// declaration order. Unset optional fields are omitted entirely.
func ToDoc(c Composite) (document.Doc, error) {
	doc := document.Doc{}
	for _, f := range c.Fields() {
		v, include := f.DocValue()
		if !include {
			continue
		}
		doc = append(doc, document.Elem{Key: f.Name(), Value: v})
	}
	return doc, nil
}

// FromDoc populates a composite's fields from a document. Fields absent
// from the document are cleared when optional and reported as a
// *DeserializationError when mandatory. Document keys with no matching
// field are ignored.
func FromDoc(c Composite, d document.Doc) error {
	for _, f := range c.Fields() {
		v, present := d.Get(f.Name())
		if !present || v == nil {
			if f.Optional() {
				f.Clear()
				continue
			}
			return &DeserializationError{Field: f.Name(), Reason: "mandatory field missing", Err: ErrMissingField}
		}
		if err := f.SetDocValue(v); err != nil {
			return err
		}
	}
	return nil
}

// SubDocField holds one nested composite, serialized as a nested document.
// The composite instance is owned by the field and populated in place.
type SubDocField struct {
	name     string
	optional bool
	set      bool
	sub      Composite
}

// NewSubDoc creates a nested-document field owning the given composite.
func NewSubDoc(name string, sub Composite, opts ...Setting) *SubDocField {
	s := applySettings(opts)
	return &SubDocField{name: name, optional: s.optional, sub: sub}
}

// Name implements Field.
func (f *SubDocField) Name() string { return f.name }

// Optional implements Field.
func (f *SubDocField) Optional() bool { return f.optional }

// IsSet implements Field.
func (f *SubDocField) IsSet() bool { return f.set }

// Clear implements Field. The owned composite keeps its field values; only
// the set flag is dropped.
func (f *SubDocField) Clear() { f.set = false }

// Value returns the owned composite.
func (f *SubDocField) Value() Composite { return f.sub }

// MarkSet flags the field as carrying a value after the owned composite
// has been mutated directly.
func (f *SubDocField) MarkSet() { f.set = true }

// DocValue implements Field.
func (f *SubDocField) DocValue() (interface{}, bool) {
	if !f.set && f.optional {
		return nil, false
	}
	doc, err := ToDoc(f.sub)
	if err != nil {
		return nil, false
	}
	return doc, true
}

// SetDocValue implements Field.
func (f *SubDocField) SetDocValue(v interface{}) error {
	doc, ok := v.(document.Doc)
	if !ok {
		return typeError(f.name, "document.Doc", v)
	}
	if err := FromDoc(f.sub, doc); err != nil {
		return err
	}
	f.set = true
	return nil
}

// EmbeddedComposites implements Embedded.
func (f *SubDocField) EmbeddedComposites() []Composite {
	return []Composite{f.sub}
}

// SubListField holds an ordered list of nested composites. A factory
// materializes fresh instances when loading from a document.
type SubListField struct {
	name     string
	optional bool
	set      bool
	factory  func() Composite
	items    []Composite
}

// NewSubList creates a list-of-sub-documents field.
func NewSubList(name string, factory func() Composite, opts ...Setting) *SubListField {
	s := applySettings(opts)
	return &SubListField{name: name, optional: s.optional, factory: factory}
}

// Name implements Field.
func (f *SubListField) Name() string { return f.name }

// Optional implements Field.
func (f *SubListField) Optional() bool { return f.optional }

// IsSet implements Field.
func (f *SubListField) IsSet() bool { return f.set }

// Clear implements Field.
func (f *SubListField) Clear() {
	f.items = nil
	f.set = false
}

// Items returns the current list of composites.
func (f *SubListField) Items() []Composite { return f.items }

// Append adds a composite to the list and marks the field set.
func (f *SubListField) Append(c Composite) {
	f.items = append(f.items, c)
	f.set = true
}

// DocValue implements Field.
func (f *SubListField) DocValue() (interface{}, bool) {
	if !f.set && f.optional {
		return nil, false
	}
	list := make(document.List, 0, len(f.items))
	for _, item := range f.items {
		doc, err := ToDoc(item)
		if err != nil {
			return nil, false
		}
		list = append(list, doc)
	}
	return list, true
}

// SetDocValue implements Field.
func (f *SubListField) SetDocValue(v interface{}) error {
	list, ok := v.(document.List)
	if !ok {
		return typeError(f.name, "document.List", v)
	}
	items := make([]Composite, 0, len(list))
	for i, entry := range list {
		doc, ok := entry.(document.Doc)
		if !ok {
			return &DeserializationError{
				Field:  f.name,
				Reason: fmt.Sprintf("list entry %d: expected document.Doc, got %T", i, entry),
			}
		}
		item := f.factory()
		if err := FromDoc(item, doc); err != nil {
			return err
		}
		items = append(items, item)
	}
	f.items = items
	f.set = true
	return nil
}

// EmbeddedComposites implements Embedded.
func (f *SubListField) EmbeddedComposites() []Composite {
	return f.items
}

// MapField holds a string-keyed map of scalar document values, serialized
// as a nested document with sorted keys for determinism.
type MapField struct {
	name     string
	optional bool
	set      bool
	values   map[string]interface{}
}

// NewMap creates a map field.
func NewMap(name string, opts ...Setting) *MapField {
	s := applySettings(opts)
	return &MapField{name: name, optional: s.optional}
}

// Name implements Field.
func (f *MapField) Name() string { return f.name }

// Optional implements Field.
func (f *MapField) Optional() bool { return f.optional }

// IsSet implements Field.
func (f *MapField) IsSet() bool { return f.set }

// Clear implements Field.
func (f *MapField) Clear() {
	f.values = nil
	f.set = false
}

// Set replaces the map contents and marks the field set.
func (f *MapField) Set(values map[string]interface{}) {
	f.values = values
	f.set = true
}

// Value returns the current map contents.
func (f *MapField) Value() map[string]interface{} { return f.values }

// DocValue implements Field.
func (f *MapField) DocValue() (interface{}, bool) {
	if !f.set && f.optional {
		return nil, false
	}
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	doc := make(document.Doc, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, document.Elem{Key: k, Value: f.values[k]})
	}
	return doc, true
}

// SetDocValue implements Field.
func (f *MapField) SetDocValue(v interface{}) error {
	doc, ok := v.(document.Doc)
	if !ok {
		return typeError(f.name, "document.Doc", v)
	}
	values := make(map[string]interface{}, len(doc))
	for _, e := range doc {
		values[e.Key] = e.Value
	}
	f.values = values
	f.set = true
	return nil
}
