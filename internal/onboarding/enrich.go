package onboarding

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidWebsite is returned by Enrich for URLs without an http(s) scheme
// or a host.
var ErrInvalidWebsite = errors.New("invalid website url")

// Enrichment holds field suggestions derived from the prospect's website.
// The form only applies a suggestion to a field that is still empty.
type Enrichment struct {
	SuggestedInstagram   string `json:"suggestedInstagram"`
	InstagramURL         string `json:"instagramUrl"`
	SuggestedLinkedIn    string `json:"suggestedLinkedin"`
	SuggestedDescription string `json:"suggestedDescription"`
}

var (
	instagramPrefix = regexp.MustCompile(`^(https?://)?(www\.)?(instagram\.com/)?@?`)
	linkedInPrefix  = regexp.MustCompile(`^(https?://)?(www\.)?(linkedin\.com/)?`)
)

// Enrich guesses social handles and a starter description from the brand
// name in the website's host.
func Enrich(website string) (Enrichment, error) {
	u, err := url.Parse(strings.TrimSpace(website))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return Enrichment{}, ErrInvalidWebsite
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	brand, _, _ := strings.Cut(host, ".")

	handle := "@" + brand
	desc := "We are " + brand + ", a growing business focused on delivering exceptional value to our customers. " +
		"We help our target audience solve their key challenges through our products and services."
	return Enrichment{
		SuggestedInstagram:   handle,
		InstagramURL:         InstagramURL(handle),
		SuggestedLinkedIn:    "company/" + brand,
		SuggestedDescription: desc,
	}, nil
}

// SanitizeInstagramHandle reduces a handle or profile link to the bare handle.
func SanitizeInstagramHandle(in string) string {
	return strings.TrimSuffix(instagramPrefix.ReplaceAllString(strings.TrimSpace(in), ""), "/")
}

// SanitizeLinkedInPage reduces a LinkedIn link to its page path.
func SanitizeLinkedInPage(in string) string {
	return strings.TrimSuffix(linkedInPrefix.ReplaceAllString(strings.TrimSpace(in), ""), "/")
}

// InstagramURL turns a handle into a profile link. Links are returned as-is.
func InstagramURL(handle string) string {
	handle = strings.TrimSpace(handle)
	if strings.HasPrefix(handle, "http") {
		return handle
	}
	return "https://instagram.com/" + strings.ReplaceAll(handle, "@", "")
}
