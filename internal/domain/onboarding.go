// Package domain contains core domain types for the onboarding service.
package domain

import (
	"time"
)

// OnboardingForm is the validated business form submitted by a prospect.
type OnboardingForm struct {
	FullName            string `json:"fullName" validate:"required,min=2"`
	Email               string `json:"email" validate:"required,email"`
	CompanyName         string `json:"companyName" validate:"required,min=2"`
	WebsiteURL          string `json:"websiteUrl" validate:"required,url"`
	InstagramURL        string `json:"instagramUrl,omitempty" validate:"omitempty,instagram_url"`
	BusinessDescription string `json:"businessDescription" validate:"required,min=50"`
	GDPRConsent         *bool  `json:"gdprConsent,omitempty"`
}

// HasConsent reports whether the prospect explicitly granted GDPR consent.
func (f *OnboardingForm) HasConsent() bool {
	return f.GDPRConsent != nil && *f.GDPRConsent
}

// OnboardingSubmission is a single attempt to build an agent from a form.
// AgentID is generated before any network call and is the correlation key
// for every later step.
type OnboardingSubmission struct {
	AgentID     string
	Form        OnboardingForm
	SubmittedAt time.Time
}
