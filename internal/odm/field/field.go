// Package field provides the typed, named, introspectable slots that make
// up a record: scalar fields over the supported document types, composite
// fields for nested records, and the composite-to-document walkers.
package field

import (
	"errors"
	"fmt"
)

// Field is a single named slot on a record. A field tracks whether a value
// has ever been assigned (IsSet) separately from the value itself, so that
// optional fields can round-trip as "absent" rather than as a null.
type Field interface {
	// Name returns the field's document key.
	Name() string

	// Optional reports whether the field may be absent from documents.
	Optional() bool

	// IsSet reports whether a value has been assigned since construction
	// or the last Clear.
	IsSet() bool

	// Clear returns the field to its unset state.
	Clear()

	// DocValue returns the field's document representation. The second
	// return is false when the field should be omitted from the document
	// entirely (unset optional fields). Mandatory fields always serialize,
	// falling back to their default value when unset.
	DocValue() (interface{}, bool)

	// SetDocValue assigns the field from a document value. A value of the
	// wrong shape yields a *DeserializationError.
	SetDocValue(v interface{}) error
}

// Validator is an optional capability for fields that validate their own
// value. Fields without it are skipped during validation.
type Validator interface {
	Validate() error
}

// ErrMissingField is wrapped by DeserializationError when a mandatory
// field has no value in the source document.
var ErrMissingField = errors.New("mandatory field missing from document")

// DeserializationError reports that a stored document's shape does not
// match the current schema.
type DeserializationError struct {
	Field  string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DeserializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot deserialize field %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot deserialize field %s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *DeserializationError) Unwrap() error {
	return e.Err
}

func typeError(name string, want string, got interface{}) error {
	return &DeserializationError{
		Field:  name,
		Reason: fmt.Sprintf("expected %s, got %T", want, got),
	}
}

// Setting configures a field at construction time.
type Setting func(*settings)

type settings struct {
	optional bool
}

// AsOptional marks the field as optional: unset values are omitted from
// documents instead of serializing a default.
func AsOptional() Setting {
	return func(s *settings) {
		s.optional = true
	}
}

func applySettings(opts []Setting) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Typed is the generic value holder composed into every scalar field. It
// carries the current value, the set flag, the optional marker, and the
// default-value policy.
type Typed[T any] struct {
	name     string
	optional bool
	set      bool
	value    T
	def      func() T
}

func newTyped[T any](name string, opts []Setting) Typed[T] {
	s := applySettings(opts)
	return Typed[T]{name: name, optional: s.optional}
}

// Name returns the field's document key.
func (t *Typed[T]) Name() string { return t.name }

// Optional reports whether the field may be absent from documents.
func (t *Typed[T]) Optional() bool { return t.optional }

// IsSet reports whether a value has been assigned.
func (t *Typed[T]) IsSet() bool { return t.set }

// Clear returns the field to its unset state.
func (t *Typed[T]) Clear() {
	var zero T
	t.value = zero
	t.set = false
}

// Set assigns the field's value and marks it set.
func (t *Typed[T]) Set(v T) {
	t.value = v
	t.set = true
}

// Get returns the effective value (the default when unset) and the set flag.
func (t *Typed[T]) Get() (T, bool) {
	if !t.set {
		return t.defaultValue(), false
	}
	return t.value, true
}

// Value returns the effective value, falling back to the default when unset.
func (t *Typed[T]) Value() T {
	v, _ := t.Get()
	return v
}

// SetDefault installs the default-value policy used when the field is unset.
func (t *Typed[T]) SetDefault(fn func() T) {
	t.def = fn
}

func (t *Typed[T]) defaultValue() T {
	if t.def != nil {
		return t.def()
	}
	var zero T
	return zero
}

// Scalar is the typed accessor surface a scalar field exposes on top of
// Field. Reference resolvers are generic over it.
type Scalar[T any] interface {
	Field
	Get() (T, bool)
	Set(v T)
	Value() T
}
