package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mantle-web/mantle/internal/odm/document"
)

func TestApplyDefaults(t *testing.T) {
	p := Apply()
	assert.Equal(t, int64(0), p.Limit)
	assert.Equal(t, int64(0), p.Skip)
	assert.Nil(t, p.Sort)
	assert.Nil(t, p.Projection)
}

func TestApplyFoldsOptions(t *testing.T) {
	sort := document.Doc{{Key: "name", Value: int64(1)}}
	proj := document.Doc{{Key: "name", Value: int64(1)}}

	p := Apply(Limit(10), Skip(5), WithSort(sort), WithProjection(proj))
	assert.Equal(t, int64(10), p.Limit)
	assert.Equal(t, int64(5), p.Skip)
	assert.Equal(t, sort, p.Sort)
	assert.Equal(t, proj, p.Projection)
}

func TestDuplicateOptionsLastWins(t *testing.T) {
	p := Apply(Limit(10), Skip(2), Limit(3), Skip(8))
	assert.Equal(t, int64(3), p.Limit)
	assert.Equal(t, int64(8), p.Skip)
}
