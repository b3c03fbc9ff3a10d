package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims whitespace",
			input:    []string{"  /projects  ", "/equipo  "},
			expected: []string{"/projects", "/equipo"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"/projects", "/crm", "/projects", "/equipo", "/crm"},
			expected: []string{"/projects", "/crm", "/equipo"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"/projects", "", "  ", "/crm"},
			expected: []string{"/projects", "/crm"},
		},
		{
			name:     "preserves case",
			input:    []string{"Foo", "foo", "FOO"},
			expected: []string{"Foo", "foo", "FOO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "lowercases and dedupes",
			input:    []string{"-AI", "-ai", "-Ai"},
			expected: []string{"-ai"},
		},
		{
			name:     "trims, lowercases, and dedupes",
			input:    []string{"  -GP ", "-ra", "-Gp", "-RA"},
			expected: []string{"-gp", "-ra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}
