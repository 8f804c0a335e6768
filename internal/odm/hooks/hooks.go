// Package hooks dispatches lifecycle events over records, their nested
// sub-objects, and their fields in a fixed traversal order.
package hooks

import (
	"context"
	"fmt"

	"github.com/mantle-web/mantle/internal/odm/field"
)

// Event identifies a lifecycle event.
type Event int

const (
	// BeforeValidation fires before a record's validators run.
	BeforeValidation Event = iota
	// AfterValidation fires after a record's validators run.
	AfterValidation
	// BeforeSave fires before any persist, on both create and update paths.
	BeforeSave
	// BeforeCreate fires before the first persist of a record's identity.
	BeforeCreate
	// BeforeUpdate fires before a persist that replaces an existing document.
	BeforeUpdate
	// AfterCreate fires after the first persist of a record's identity.
	AfterCreate
	// AfterUpdate fires after a persist that replaced an existing document.
	AfterUpdate
	// AfterSave fires after any persist, on both create and update paths.
	AfterSave
	// BeforeDelete fires before a record is removed.
	BeforeDelete
	// AfterDelete fires after a record is removed.
	AfterDelete
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case BeforeValidation:
		return "before_validation"
	case AfterValidation:
		return "after_validation"
	case BeforeSave:
		return "before_save"
	case BeforeCreate:
		return "before_create"
	case BeforeUpdate:
		return "before_update"
	case AfterCreate:
		return "after_create"
	case AfterUpdate:
		return "after_update"
	case AfterSave:
		return "after_save"
	case BeforeDelete:
		return "before_delete"
	case AfterDelete:
		return "after_delete"
	default:
		return "unknown"
	}
}

// Handler is the optional lifecycle capability. Records, sub-objects, and
// fields that implement it receive events; anything that does not is
// skipped silently.
type Handler interface {
	HandleHook(ctx context.Context, event Event) error
}

// CallbackError reports that a lifecycle hook failed. The remaining
// dispatch for that event is aborted.
type CallbackError struct {
	Event Event
	Err   error
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	return fmt.Sprintf("hook %s failed: %v", e.Event, e.Err)
}

// Unwrap returns the hook's underlying error.
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Dispatch invokes event hooks over the composite: its own handler first,
// then each nested sub-object recursively, then each field's handler, in
// field-declaration order. A hook error aborts the remaining dispatch and
// is returned as a *CallbackError.
func Dispatch(ctx context.Context, event Event, c field.Composite) error {
	if err := dispatch(ctx, event, c); err != nil {
		if cbErr, ok := err.(*CallbackError); ok {
			return cbErr
		}
		return &CallbackError{Event: event, Err: err}
	}
	return nil
}

func dispatch(ctx context.Context, event Event, c field.Composite) error {
	if h, ok := c.(Handler); ok {
		if err := h.HandleHook(ctx, event); err != nil {
			return err
		}
	}
	fields := c.Fields()
	for _, f := range fields {
		emb, ok := f.(field.Embedded)
		if !ok {
			continue
		}
		for _, sub := range emb.EmbeddedComposites() {
			if err := dispatch(ctx, event, sub); err != nil {
				return err
			}
		}
	}
	for _, f := range fields {
		if h, ok := f.(Handler); ok {
			if err := h.HandleHook(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}
