package gitlib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
)

func TestObjectID_IsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, gitlib.ObjectID("").IsZero())
	assert.True(t, gitlib.ObjectID("0000000").IsZero())
	assert.True(t, gitlib.ObjectID("0000000000000000000000000000000000000000").IsZero())
	assert.False(t, gitlib.ObjectID("0000001").IsZero())
}

func TestObjectID_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id    string
		valid bool
	}{
		{"abcd", true},
		{"3b18e51", true},
		{"0123456789ABCDEF0123456789abcdef01234567", true},
		{"abc", false},
		{"0123456789abcdef0123456789abcdef012345678", false},
		{"xyz1234", false},
		{"HEAD", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, gitlib.ObjectID(tt.id).Valid(), tt.id)
	}
}
