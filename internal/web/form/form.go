// Package form defines the contract between reference fields and the web
// layer's selection controls: an ordered list of (value, label) pairs.
// Rendering and request binding live in the web layer, not here.
package form

import "context"

// Option is one selectable entry. A nil Value is the "no selection" entry
// prepended for optional fields.
type Option[K any] struct {
	Value *K
	Label string
}

// NoSelection builds the empty entry with the given label.
func NoSelection[K any](label string) Option[K] {
	return Option[K]{Label: label}
}

// Choice builds a selectable entry for a concrete value.
func Choice[K any](value K, label string) Option[K] {
	return Option[K]{Value: &value, Label: label}
}

// Selector is the consumed UI capability: render a labeled selection
// control from ordered options and bind the chosen value back.
type Selector[K any] interface {
	Select(ctx context.Context, options []Option[K], current *K, bind func(*K) error) error
}
