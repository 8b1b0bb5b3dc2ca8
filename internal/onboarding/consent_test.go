package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresConsent(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"en-US,en;q=0.9", false},
		{"de-DE,de;q=0.9", true},
		{"FR", true},
		{"es-ES", true},
		{"es-MX", false},
		{"pt-BR", true},
		{"en-GB,de;q=0.8", false},
		{" nl-NL ", true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiresConsent(tt.header))
		})
	}
}
