// Package narrative renders agent profile data into human-readable text.
// All functions are pure and safe for concurrent use.
package narrative

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultStyleLength is the display limit applied by TruncateStyle.
const DefaultStyleLength = 120

// ICP is the ideal-customer-profile input to BuildNarrative.
type ICP struct {
	Industries  []string
	Geo         []string
	Employees   int
	Locations   int
	Revenue     float64
	Title       string
	Department  string
	Motivations string
	Traits      string
}

// FormatList joins items with English list grammar:
// "A", "A and B", "A, B, and C".
func FormatList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	last := len(items) - 1
	return strings.Join(items[:last], ", ") + ", and " + items[last]
}

// SplitList splits s on any of the separator runes, trims each item and
// drops empties.
func SplitList(s string, seps string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FormatIndustries formats a comma-delimited industry column.
func FormatIndustries(csv string) string {
	return FormatList(SplitList(csv, ","))
}

// FormatCompanySize renders the compact size line shown on the profile card,
// e.g. "~500 employees • 2 locations • $1.5M revenue". Zero values are omitted.
func FormatCompanySize(employees, locations int, revenue float64) string {
	var parts []string
	if employees > 0 {
		parts = append(parts, "~"+humanize.Comma(int64(employees))+" employees")
	}
	if locations > 0 {
		parts = append(parts, pluralLocations(locations))
	}
	if revenue > 0 {
		parts = append(parts, formatMillions(revenue)+" revenue")
	}
	return strings.Join(parts, " • ")
}

// IsPlaceholderGeo reports whether geo carries no usable location.
func IsPlaceholderGeo(geo string) bool {
	g := strings.ToLower(strings.TrimSpace(geo))
	return g == "" || strings.Contains(g, "unknown") || strings.Contains(g, "various")
}

// BuildNarrative renders the first-person prioritization narrative for icp.
// The same function backs the read-only display and the live edit preview.
func BuildNarrative(icp ICP) string {
	var b strings.Builder
	b.WriteString("I'll prioritize ")

	if industries := FormatList(icp.Industries); industries != "" {
		b.WriteString(industries)
		b.WriteString(" companies")
	} else {
		b.WriteString("businesses")
	}

	if geo := strings.Join(icp.Geo, ", "); !IsPlaceholderGeo(geo) {
		b.WriteString(" in ")
		b.WriteString(geo)
	}
	b.WriteString(". ")

	var size []string
	if icp.Employees > 0 {
		size = append(size, "around "+humanize.Comma(int64(icp.Employees))+" employees")
	}
	if icp.Locations > 0 {
		size = append(size, pluralLocations(icp.Locations))
	}
	if icp.Revenue > 0 {
		size = append(size, formatMillions(icp.Revenue)+" annual revenue")
	}
	if len(size) > 0 {
		b.WriteString("I focus on companies with ")
		b.WriteString(FormatList(size))
		b.WriteString(". ")
	}

	title := strings.TrimSpace(icp.Title)
	dept := strings.TrimSpace(icp.Department)
	switch {
	case title != "" && dept != "":
		b.WriteString("My ideal contact is a " + title + " in " + dept + ". ")
	case title != "":
		b.WriteString("My ideal contact is a " + title + ". ")
	case dept != "":
		b.WriteString("My ideal contact is someone in " + dept + ". ")
	}

	if m := strings.TrimSpace(icp.Motivations); m != "" {
		b.WriteString("They're motivated by " + strings.ToLower(icp.Motivations) + ". ")
	}

	if t := strings.TrimSpace(icp.Traits); t != "" {
		lower := strings.ToLower(icp.Traits)
		text := icp.Traits
		if !strings.HasPrefix(lower, "value") && !strings.HasPrefix(lower, "they") {
			text = "value " + lower
		}
		b.WriteString("They " + text + ". ")
	}

	return strings.TrimSpace(b.String())
}

// ParseKeyDifferentiators splits a differentiator column on ';' or ',' and
// returns at most the first three items.
func ParseKeyDifferentiators(s string) []string {
	items := SplitList(s, ";,")
	if len(items) > 3 {
		items = items[:3]
	}
	return items
}

// TruncateStyle shortens a communication style description to max
// characters, appending "..." when cut. A non-positive max uses
// DefaultStyleLength.
func TruncateStyle(style string, max int) string {
	if max <= 0 {
		max = DefaultStyleLength
	}
	r := []rune(style)
	if len(r) <= max {
		return style
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}

func pluralLocations(n int) string {
	if n > 1 {
		return strconv.Itoa(n) + " locations"
	}
	return strconv.Itoa(n) + " location"
}

func formatMillions(dollars float64) string {
	return "$" + strconv.FormatFloat(dollars/1_000_000, 'f', 1, 64) + "M"
}
