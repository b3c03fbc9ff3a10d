package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtraction(t *testing.T) {
	m := map[string]any{
		"role":     "admin",
		"internal": true,
		"routes":   []any{"/a", 7, "/b"},
		"typed":    []string{"/c"},
		"count":    3,
	}

	assert.Equal(t, "admin", String(m, "role"))
	assert.Equal(t, "", String(m, "count"), "mistyped value reads as zero")
	assert.Equal(t, "", String(m, "missing"))

	assert.True(t, Bool(m, "internal"))
	assert.False(t, Bool(m, "role"))

	assert.Equal(t, []string{"/a", "/b"}, Strings(m, "routes"), "non-string elements dropped")
	assert.Equal(t, []string{"/c"}, Strings(m, "typed"))
	assert.Nil(t, Strings(m, "count"))
	assert.Nil(t, Strings(nil, "routes"))
}
