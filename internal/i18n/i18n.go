// Package i18n provides locale-aware printers for chainctl output.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we format output for
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

// MatchLanguage maps a locale string such as "de_DE" or "en-US" onto the
// closest supported language.
func MatchLanguage(locale string) language.Tag {
	locale = strings.ReplaceAll(locale, "_", "-")
	if i := strings.Index(locale, "."); i != -1 {
		locale = locale[:i]
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLang
	}
	tag, _, _ = matcher.Match(tag)
	return tag
}

// NewPrinter returns a message printer for the given language
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// NewCLIPrinter returns a printer for the system's locale (LC_ALL, then
// LANG). Numbers it prints get locale-specific digit grouping.
func NewCLIPrinter() *message.Printer {
	lang := os.Getenv("LC_ALL")
	if lang == "" {
		lang = os.Getenv("LANG")
	}
	if lang == "" || lang == "C" || lang == "POSIX" {
		return message.NewPrinter(DefaultLang)
	}
	return message.NewPrinter(MatchLanguage(lang))
}
