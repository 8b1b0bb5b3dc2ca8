package onboarding

import "strings"

// euLanguages are the language tags that trigger the GDPR consent checkbox.
var euLanguages = []string{"de", "fr", "es-es", "it", "nl", "pt", "pl", "ro", "cs", "hu"}

// RequiresConsent reports whether the preferred language of an
// Accept-Language header belongs to an EU locale. Matching is a
// case-insensitive prefix match on the first listed tag.
func RequiresConsent(acceptLanguage string) bool {
	lang := acceptLanguage
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return false
	}
	for _, eu := range euLanguages {
		if strings.HasPrefix(lang, eu) {
			return true
		}
	}
	return false
}
