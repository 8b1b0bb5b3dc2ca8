package profile

import (
	"strings"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/narrative"
)

// Join separators used when a draft is written back. Differentiators are
// read on ';' or ',' but always written with "; ".
const (
	ListSeparator           = ", "
	DifferentiatorSeparator = "; "
)

// ToEditableDraft explodes the delimited columns of rec for editing.
// Title and department are wrapped into a single element.
func ToEditableDraft(rec domain.AgentRecord) domain.EditableDraft {
	return domain.EditableDraft{
		AgentID:             rec.AgentID,
		UserName:            rec.UserName,
		CompanyName:         rec.CompanyName,
		Email:               rec.Email,
		BusinessDescription: rec.BusinessDescription,
		Industries:          narrative.SplitList(rec.ICPIndustries, ","),
		Geo:                 narrative.SplitList(rec.ICPGeo, ","),
		Titles:              wrap(rec.ICPTitle),
		Departments:         wrap(rec.ICPDepartment),
		Differentiators:     narrative.SplitList(rec.KeyDifferentiators, ";,"),
		ICPEmployees:        rec.ICPEmployees,
		ICPLocations:        rec.ICPLocations,
		ICPRevenue:          rec.ICPRevenue,
		ICPTraits:           rec.ICPTraits,
		ICPMotivations:      rec.ICPMotivations,
		ICPWhy:              rec.ICPWhy,
		CommStyle:           rec.CommStyle,
	}
}

func wrap(s string) []string {
	if s = strings.TrimSpace(s); s == "" {
		return []string{}
	}
	return []string{s}
}

// joinItems trims items, drops empties and joins with sep.
func joinItems(items []string, sep string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	return strings.Join(kept, sep)
}

// PatchFromDraft builds the update for d. Every editable column is written;
// the collection fields are re-joined and never sent as such.
func PatchFromDraft(d domain.EditableDraft) domain.AgentPatch {
	industries := joinItems(d.Industries, ListSeparator)
	geo := joinItems(d.Geo, ListSeparator)
	title := joinItems(d.Titles, ListSeparator)
	department := joinItems(d.Departments, ListSeparator)
	differentiators := joinItems(d.Differentiators, DifferentiatorSeparator)

	userName := d.UserName
	companyName := d.CompanyName
	email := d.Email
	description := d.BusinessDescription
	employees := d.ICPEmployees
	locations := d.ICPLocations
	revenue := d.ICPRevenue
	traits := d.ICPTraits
	motivations := d.ICPMotivations
	why := d.ICPWhy
	commStyle := d.CommStyle

	return domain.AgentPatch{
		UserName:            &userName,
		CompanyName:         &companyName,
		Email:               &email,
		BusinessDescription: &description,
		ICPGeo:              &geo,
		ICPIndustries:       &industries,
		ICPEmployees:        &employees,
		ICPLocations:        &locations,
		ICPRevenue:          &revenue,
		ICPTraits:           &traits,
		ICPTitle:            &title,
		ICPDepartment:       &department,
		ICPMotivations:      &motivations,
		ICPWhy:              &why,
		KeyDifferentiators:  &differentiators,
		CommStyle:           &commStyle,
	}
}

// DraftICP converts a draft into narrative input.
func DraftICP(d domain.EditableDraft) narrative.ICP {
	return narrative.ICP{
		Industries:  d.Industries,
		Geo:         d.Geo,
		Employees:   d.ICPEmployees,
		Locations:   d.ICPLocations,
		Revenue:     d.ICPRevenue,
		Title:       joinItems(d.Titles, ListSeparator),
		Department:  joinItems(d.Departments, ListSeparator),
		Motivations: d.ICPMotivations,
		Traits:      d.ICPTraits,
	}
}

// DraftNarrative renders the live preview for a draft being edited.
func DraftNarrative(d domain.EditableDraft) string {
	return narrative.BuildNarrative(DraftICP(d))
}

// RecordNarrative renders the narrative of a stored record through the same
// path as DraftNarrative.
func RecordNarrative(rec domain.AgentRecord) string {
	return DraftNarrative(ToEditableDraft(rec))
}
