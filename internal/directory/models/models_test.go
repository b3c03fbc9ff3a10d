package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameAutomationSet(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want bool
	}{
		{"both empty", nil, []string{}, true},
		{"order insensitive", []string{"a", "b", "c"}, []string{"c", "a", "b"}, true},
		{"duplicates ignored", []string{"a", "a", "b"}, []string{"b", "a"}, true},
		{"missing element", []string{"a", "b"}, []string{"a"}, false},
		{"extra element", []string{"a"}, []string{"a", "b"}, false},
		{"disjoint", []string{"a"}, []string{"b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameAutomationSet(tt.a, tt.b))
		})
	}
}

func TestHasAutomations(t *testing.T) {
	assert.False(t, (&Membership{}).HasAutomations())
	assert.True(t, (&Membership{AutomationIDs: []string{"auto-1"}}).HasAutomations())
}
