package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hubops/internal/platform/config"
)

func TestIsAlias(t *testing.T) {
	classifier := NewClassifier(config.DefaultAliasSuffixes)

	tests := []struct {
		email string
		want  bool
	}{
		{"finsa-ai@domain.com", true},
		{"edc-pz@domain.com", true},
		{"gefe-gp@domain.com", true},
		{"sgac-ra@domain.com", true},
		{"finsa@domain.com", false},
		// suffix must sit immediately before the '@'
		{"fins-aix@domain.com", false},
		{"finsa-ai.backup@domain.com", false},
		{"", false},
		{"not-an-email", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.IsAlias(tt.email))
		})
	}
}

func TestIsAliasCaseInsensitive(t *testing.T) {
	classifier := NewClassifier([]string{"-AI"})
	assert.True(t, classifier.IsAlias("Finsa-AI@Domain.com"))
	assert.True(t, classifier.IsAlias("finsa-ai@domain.com"))
}

func TestBaseEmail(t *testing.T) {
	classifier := NewClassifier(config.DefaultAliasSuffixes)

	tests := []struct {
		email string
		want  string
	}{
		{"finsa-pz@domain.com", "finsa@domain.com"},
		{"edc-ai@domain.com", "edc@domain.com"},
		{"Gefe-GP@Domain.com", "Gefe@Domain.com"},
		// non-alias addresses come back unchanged
		{"finsa@domain.com", "finsa@domain.com"},
		{"fins-aix@domain.com", "fins-aix@domain.com"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, classifier.BaseEmail(tt.email))
		})
	}
}

func TestSuffixesCopy(t *testing.T) {
	classifier := NewClassifier([]string{"-ai", "-gp"})
	got := classifier.Suffixes()
	got[0] = "mutated"
	assert.Equal(t, []string{"-ai", "-gp"}, classifier.Suffixes())
}
