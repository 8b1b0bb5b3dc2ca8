package profile

import (
	"strings"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/narrative"
)

// Rationale is the automation service's explanation of each section.
type Rationale struct {
	BusinessDescription string `json:"business_description,omitempty"`
	ICP                 string `json:"icp,omitempty"`
	Differentiators     string `json:"differentiators,omitempty"`
	Comms               string `json:"comms,omitempty"`
}

// Summary is the read-only display view of an agent record.
type Summary struct {
	AgentID         string    `json:"agent_id"`
	CompanyName     string    `json:"company_name"`
	Contact         string    `json:"contact,omitempty"`
	Industries      string    `json:"industries,omitempty"`
	Geo             string    `json:"geo,omitempty"`
	CompanySize     string    `json:"company_size,omitempty"`
	Title           string    `json:"title,omitempty"`
	Department      string    `json:"department,omitempty"`
	Differentiators []string  `json:"differentiators"`
	CommStyle       string    `json:"comm_style,omitempty"`
	Narrative       string    `json:"narrative"`
	Rationale       Rationale `json:"rationale"`
}

// Summarize builds the display view of rec.
func Summarize(rec domain.AgentRecord) Summary {
	var contact []string
	if n := strings.TrimSpace(rec.UserName); n != "" {
		contact = append(contact, n)
	}
	if e := strings.TrimSpace(rec.Email); e != "" {
		contact = append(contact, e)
	}

	geo := strings.TrimSpace(rec.ICPGeo)
	if narrative.IsPlaceholderGeo(geo) {
		geo = ""
	}

	return Summary{
		AgentID:         rec.AgentID,
		CompanyName:     rec.CompanyName,
		Contact:         strings.Join(contact, " • "),
		Industries:      narrative.FormatIndustries(rec.ICPIndustries),
		Geo:             geo,
		CompanySize:     narrative.FormatCompanySize(rec.ICPEmployees, rec.ICPLocations, rec.ICPRevenue),
		Title:           strings.TrimSpace(rec.ICPTitle),
		Department:      strings.TrimSpace(rec.ICPDepartment),
		Differentiators: narrative.ParseKeyDifferentiators(rec.KeyDifferentiators),
		CommStyle:       narrative.TruncateStyle(rec.CommStyle, narrative.DefaultStyleLength),
		Narrative:       RecordNarrative(rec),
		Rationale: Rationale{
			BusinessDescription: rec.RationaleBusinessDescription,
			ICP:                 rec.RationaleICP,
			Differentiators:     rec.RationaleDiff,
			Comms:               rec.RationaleComms,
		},
	}
}
