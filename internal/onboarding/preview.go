package onboarding

import (
	"strings"

	"github.com/ashureev/agent-onboarding/internal/domain"
)

// AgentPreview is the instant, local guess at the agent shown while the
// prospect fills in the form.
type AgentPreview struct {
	Greeting  string   `json:"greeting"`
	Tone      string   `json:"tone"`
	Expertise []string `json:"expertise"`
}

var businessTypes = []struct {
	keywords []string
	kind     string
}{
	{[]string{"restaurant"}, "restaurant"},
	{[]string{"clinic", "dental"}, "healthcare practice"},
	{[]string{"agency"}, "agency"},
	{[]string{"store", "shop"}, "retail business"},
	{[]string{"consultant"}, "consultancy"},
}

var tones = map[string]string{
	"restaurant":          "Warm and welcoming",
	"healthcare practice": "Caring and professional",
	"agency":              "Expert and consultative",
}

var expertiseAreas = []struct {
	keywords []string
	area     string
}{
	{[]string{"lead"}, "Lead Generation"},
	{[]string{"customer", "client"}, "Customer Service"},
	{[]string{"book", "appointment"}, "Appointment Booking"},
	{[]string{"product", "service"}, "Product Information"},
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Preview derives a greeting, tone and up to three expertise areas from
// keywords in the business description.
func Preview(form domain.OnboardingForm) AgentPreview {
	company := form.CompanyName
	if company == "" {
		company = "your company"
	}
	desc := strings.ToLower(form.BusinessDescription)

	kind := "business"
	for _, bt := range businessTypes {
		if containsAny(desc, bt.keywords) {
			kind = bt.kind
			break
		}
	}

	tone, ok := tones[kind]
	if !ok {
		tone = "Professional and helpful"
	}

	var expertise []string
	for _, ea := range expertiseAreas {
		if containsAny(desc, ea.keywords) {
			expertise = append(expertise, ea.area)
		}
	}
	if len(expertise) == 0 {
		expertise = []string{"Business Inquiries"}
	}
	if len(expertise) > 3 {
		expertise = expertise[:3]
	}

	return AgentPreview{
		Greeting: "Hi there! I'm the AI assistant for " + company +
			". I'd love to help you learn more about how we can serve your needs. What brings you to our " +
			kind + " today?",
		Tone:      tone,
		Expertise: expertise,
	}
}
