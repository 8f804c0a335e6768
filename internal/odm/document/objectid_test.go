package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIDHexRoundTrip(t *testing.T) {
	id := NewObjectID()
	hex := id.Hex()
	assert.Len(t, hex, 24)

	parsed, err := ObjectIDFromHex(hex)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestObjectIDFromHexRejectsInvalid(t *testing.T) {
	_, err := ObjectIDFromHex("abc")
	assert.Error(t, err)

	_, err = ObjectIDFromHex("zzzzzzzzzzzzzzzzzzzzzzzz")
	assert.Error(t, err)
}

func TestNewObjectIDIsUnique(t *testing.T) {
	seen := make(map[ObjectID]bool)
	for i := 0; i < 1000; i++ {
		id := NewObjectID()
		assert.False(t, seen[id], "generated a duplicate objectid")
		seen[id] = true
	}
}

func TestObjectIDIsZero(t *testing.T) {
	assert.True(t, NilObjectID.IsZero())
	assert.False(t, NewObjectID().IsZero())
}

func TestIsHexObjectID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"507F1F77BCF86CD799439011", true},
		{"abc", false},
		{"507f1f77bcf86cd79943901", false},     // 23 chars
		{"507f1f77bcf86cd7994390111", false},   // 25 chars
		{"507f1f77bcf86cd79943901g", false},    // non-hex char
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsHexObjectID(tt.in), "input %q", tt.in)
	}
}
