package domain

import "strings"

var supportedLanguages = []string{
	"English", "Spanish", "French", "German", "Italian",
	"Portuguese", "Japanese", "Korean", "Chinese",
}

// SupportedLanguages returns the languages offered to callers, in display order.
func SupportedLanguages() []string {
	return append([]string(nil), supportedLanguages...)
}

// NormalizeLanguage returns the canonical spelling of a supported language,
// matching case-insensitively.
func NormalizeLanguage(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, lang := range supportedLanguages {
		if strings.EqualFold(name, lang) {
			return lang, true
		}
	}
	return "", false
}
