package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		locale   string
		expected language.Tag
	}{
		{"en_US.UTF-8", language.English},
		{"de_DE.UTF-8", language.German},
		{"fr-FR", language.English}, // Fallback
		{"", language.English},
		{"not a locale", language.English},
	}

	for _, tt := range tests {
		got := MatchLanguage(tt.locale)
		base, _ := got.Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "locale: %s", tt.locale)
	}
}

func TestNewCLIPrinter_Grouping(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "C")
	assert.Equal(t, "12,345", NewCLIPrinter().Sprintf("%d", 12345))

	t.Setenv("LC_ALL", "de_DE.UTF-8")
	assert.Equal(t, "12.345", NewCLIPrinter().Sprintf("%d", 12345))
}
