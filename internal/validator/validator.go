// Package validator wraps go-playground/validator with the custom rules and
// user-facing messages of the onboarding form.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator is a wrapper around the actual validator. Field names in
// reported errors are the json names of the struct fields.
type Validator struct {
	validator *validator.Validate
	messages  map[string]string
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validator: v, messages: map[string]string{}}
}

func (v *Validator) Register(rules ...ValidationRule) {
	for _, validationRule := range rules {
		validationRule.Rule(v.validator)
	}
}

// WithMessages sets field messages keyed by "field" or "field.tag". The more
// specific key wins.
func (v *Validator) WithMessages(m map[string]string) *Validator {
	for k, msg := range m {
		v.messages[k] = msg
	}
	return v
}

func (v *Validator) Struct(s any) error {
	return v.validator.Struct(s)
}

// FieldErrors validates s and returns a message per invalid field. The map
// is nil when s is valid. A non-validation failure is returned as err.
func (v *Validator) FieldErrors(s any) (map[string]string, error) {
	err := v.validator.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = v.message(fe)
	}
	return out, nil
}

func (v *Validator) message(fe validator.FieldError) string {
	if msg, ok := v.messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := v.messages[fe.Field()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
