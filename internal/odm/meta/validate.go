package meta

import (
	"context"
	"fmt"

	"github.com/mantle-web/mantle/internal/odm/field"
	"github.com/mantle-web/mantle/internal/odm/hooks"
)

// ValidationError aggregates the per-field failures of one validation run.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a validation failure on a single field.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s: %s", ve.Errors[0].Field, ve.Errors[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(ve.Errors))
	}
}

// Validate runs the record's validation sequence: the BeforeValidation
// hooks, then every field's Validator capability (fields without one are
// skipped), then the AfterValidation hooks. Field failures are aggregated
// into a *ValidationError; hook failures abort as a *hooks.CallbackError.
func (m *Meta[R]) Validate(ctx context.Context, r R) error {
	if err := hooks.Dispatch(ctx, hooks.BeforeValidation, r); err != nil {
		return err
	}
	var failures []FieldError
	for _, f := range r.Fields() {
		v, ok := f.(field.Validator)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			failures = append(failures, FieldError{Field: f.Name(), Message: err.Error()})
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Errors: failures}
	}
	return hooks.Dispatch(ctx, hooks.AfterValidation, r)
}
