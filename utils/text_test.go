package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "trimmed", Truncate("  trimmed  ", 10))

	long := Truncate("a very long message preview that keeps going", 12)
	assert.LessOrEqual(t, len([]rune(long)), 12)
	assert.Equal(t, "…", string([]rune(long)[len([]rune(long))-1:]))
}
