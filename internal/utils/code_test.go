package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckinCode(t *testing.T) {
	t.Parallel()

	four := regexp.MustCompile(`^\d{4}$`)
	for i := 0; i < 50; i++ {
		code, err := NewCheckinCode()
		require.NoError(t, err)
		assert.Regexp(t, four, code, "codes keep leading zeros")
	}
}

func TestNewOrderNumber(t *testing.T) {
	t.Parallel()

	shape := regexp.MustCompile(`^PM-[0-9A-F]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := NewOrderNumber()
		assert.Regexp(t, shape, n)
		assert.False(t, seen[n], "order numbers should not repeat in practice")
		seen[n] = true
	}
}
