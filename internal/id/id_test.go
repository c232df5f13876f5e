package id

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	shape := regexp.MustCompile(`^sse_[0-9a-z]{12}$`)
	seen := make(map[string]struct{}, 500)

	for range 500 {
		got, err := Generate(PrefixSSEClient)
		require.NoError(t, err)
		assert.Regexp(t, shape, got)

		_, dup := seen[got]
		assert.False(t, dup, "duplicate id %s", got)
		seen[got] = struct{}{}
	}
}
