package field

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mantle-web/mantle/internal/odm/document"
)

// StringField holds a string value.
type StringField struct {
	Typed[string]
}

// NewString creates a string field.
func NewString(name string, opts ...Setting) *StringField {
	return &StringField{Typed: newTyped[string](name, opts)}
}

// DocValue implements Field.
func (f *StringField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *StringField) SetDocValue(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return typeError(f.Name(), "string", v)
	}
	f.Set(s)
	return nil
}

// IntField holds a 32-bit integer, serialized as a document int64.
type IntField struct {
	Typed[int32]
}

// NewInt creates a 32-bit integer field.
func NewInt(name string, opts ...Setting) *IntField {
	return &IntField{Typed: newTyped[int32](name, opts)}
}

// DocValue implements Field.
func (f *IntField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return int64(v), true
}

// SetDocValue implements Field.
func (f *IntField) SetDocValue(v interface{}) error {
	n, ok := v.(int64)
	if !ok {
		return typeError(f.Name(), "int64", v)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return &DeserializationError{Field: f.Name(), Reason: "value out of int32 range"}
	}
	f.Set(int32(n))
	return nil
}

// Int64Field holds a 64-bit integer.
type Int64Field struct {
	Typed[int64]
}

// NewInt64 creates a 64-bit integer field.
func NewInt64(name string, opts ...Setting) *Int64Field {
	return &Int64Field{Typed: newTyped[int64](name, opts)}
}

// DocValue implements Field.
func (f *Int64Field) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *Int64Field) SetDocValue(v interface{}) error {
	n, ok := v.(int64)
	if !ok {
		return typeError(f.Name(), "int64", v)
	}
	f.Set(n)
	return nil
}

// FloatField holds a 64-bit floating point value.
type FloatField struct {
	Typed[float64]
}

// NewFloat creates a float field.
func NewFloat(name string, opts ...Setting) *FloatField {
	return &FloatField{Typed: newTyped[float64](name, opts)}
}

// DocValue implements Field.
func (f *FloatField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *FloatField) SetDocValue(v interface{}) error {
	switch n := v.(type) {
	case float64:
		f.Set(n)
		return nil
	case int64:
		// Integral floats lose their fraction marker in JSON.
		f.Set(float64(n))
		return nil
	default:
		return typeError(f.Name(), "float64", v)
	}
}

// BoolField holds a boolean value.
type BoolField struct {
	Typed[bool]
}

// NewBool creates a boolean field.
func NewBool(name string, opts ...Setting) *BoolField {
	return &BoolField{Typed: newTyped[bool](name, opts)}
}

// DocValue implements Field.
func (f *BoolField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *BoolField) SetDocValue(v interface{}) error {
	b, ok := v.(bool)
	if !ok {
		return typeError(f.Name(), "bool", v)
	}
	f.Set(b)
	return nil
}

// DateTimeField holds a time.Time, serialized as the $dt wrapper form.
type DateTimeField struct {
	Typed[time.Time]
}

// NewDateTime creates a date/time field.
func NewDateTime(name string, opts ...Setting) *DateTimeField {
	return &DateTimeField{Typed: newTyped[time.Time](name, opts)}
}

// DocValue implements Field.
func (f *DateTimeField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *DateTimeField) SetDocValue(v interface{}) error {
	t, ok := v.(time.Time)
	if !ok {
		return typeError(f.Name(), "time.Time", v)
	}
	f.Set(t)
	return nil
}

// ObjectIDField holds a structured identifier, serialized as the $oid
// wrapper form.
type ObjectIDField struct {
	Typed[document.ObjectID]
}

// NewObjectID creates an ObjectID field.
func NewObjectID(name string, opts ...Setting) *ObjectIDField {
	return &ObjectIDField{Typed: newTyped[document.ObjectID](name, opts)}
}

// DocValue implements Field.
func (f *ObjectIDField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *ObjectIDField) SetDocValue(v interface{}) error {
	id, ok := v.(document.ObjectID)
	if !ok {
		return typeError(f.Name(), "document.ObjectID", v)
	}
	f.Set(id)
	return nil
}

// UUIDField holds a unique random identifier, serialized as the $uuid
// wrapper form.
type UUIDField struct {
	Typed[uuid.UUID]
}

// NewUUID creates a UUID field.
func NewUUID(name string, opts ...Setting) *UUIDField {
	return &UUIDField{Typed: newTyped[uuid.UUID](name, opts)}
}

// DocValue implements Field.
func (f *UUIDField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *UUIDField) SetDocValue(v interface{}) error {
	u, ok := v.(uuid.UUID)
	if !ok {
		return typeError(f.Name(), "uuid.UUID", v)
	}
	f.Set(u)
	return nil
}

// RegexField holds a pattern value, serialized as the $regex/$flags
// wrapper form.
type RegexField struct {
	Typed[document.Regex]
}

// NewRegex creates a pattern field.
func NewRegex(name string, opts ...Setting) *RegexField {
	return &RegexField{Typed: newTyped[document.Regex](name, opts)}
}

// DocValue implements Field.
func (f *RegexField) DocValue() (interface{}, bool) {
	v, set := f.Get()
	if !set && f.Optional() {
		return nil, false
	}
	return v, true
}

// SetDocValue implements Field.
func (f *RegexField) SetDocValue(v interface{}) error {
	r, ok := v.(document.Regex)
	if !ok {
		return typeError(f.Name(), "document.Regex", v)
	}
	f.Set(r)
	return nil
}
