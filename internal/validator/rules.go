package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

// instagramURLValidator accepts empty values and links that start with http
// and point into instagram.com/.
func instagramURLValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if val == "" {
		return true
	}
	return strings.HasPrefix(val, "http") && strings.Contains(val, "instagram.com/")
}

func NewOnboardingValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("instagram_url", instagramURLValidator),
		},
	}
}

// OnboardingMessages are the user-facing messages of the onboarding form.
var OnboardingMessages = map[string]string{
	"fullName":            "Name must be at least 2 characters",
	"email":               "Please enter a valid email address",
	"companyName":         "Company name must be at least 2 characters",
	"websiteUrl":          "Please enter a valid website URL",
	"instagramUrl":        "Instagram URL must start with http and include instagram.com/",
	"businessDescription": "Please provide at least 50 characters describing your business",
}

// NewOnboardingValidator returns a validator configured for domain.OnboardingForm.
func NewOnboardingValidator() *Validator {
	v := NewValidator()
	v.Register(NewOnboardingValidationRules()...)
	return v.WithMessages(OnboardingMessages)
}
