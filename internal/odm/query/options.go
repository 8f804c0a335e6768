// Package query provides the small value types composed into a find:
// limit, skip, sort, and projection modifiers.
package query

import "github.com/mantle-web/mantle/internal/odm/document"

// Option is an immutable query modifier.
type Option interface {
	apply(*Params)
}

// Params is the accumulated set of modifiers for one query. A query
// carries at most one limit and one skip; when duplicates are supplied
// the last one wins. Zero means "no limit" / "no skip".
type Params struct {
	Limit      int64
	Skip       int64
	Sort       document.Doc
	Projection document.Doc
}

// Apply folds the options into a Params value.
func Apply(opts ...Option) Params {
	var p Params
	for _, opt := range opts {
		opt.apply(&p)
	}
	return p
}

type limitOption int64

func (o limitOption) apply(p *Params) { p.Limit = int64(o) }

// Limit bounds the number of results returned.
func Limit(n int64) Option { return limitOption(n) }

type skipOption int64

func (o skipOption) apply(p *Params) { p.Skip = int64(o) }

// Skip drops the first n results.
func Skip(n int64) Option { return skipOption(n) }

type sortOption struct {
	doc document.Doc
}

func (o sortOption) apply(p *Params) { p.Sort = o.doc }

// WithSort orders results by the sort document, applied verbatim key by
// key (1 ascending, -1 descending).
func WithSort(sort document.Doc) Option { return sortOption{doc: sort} }

type projectionOption struct {
	doc document.Doc
}

func (o projectionOption) apply(p *Params) { p.Projection = o.doc }

// WithProjection restricts the returned fields to those named in the
// projection document. The identity field is always included.
func WithProjection(projection document.Doc) Option { return projectionOption{doc: projection} }
