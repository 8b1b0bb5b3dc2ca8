package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/charmbracelet/lipgloss"
)

const (
	textFormat = "text"
	jsonFormat = "json"
)

var legalOutputTypes = []string{textFormat, jsonFormat}

var (
	headingStyle   = lipgloss.NewStyle().Bold(true)
	narrativeStyle = lipgloss.NewStyle().Italic(true).Width(80)
)

func validateOutput(output string) error {
	for _, t := range legalOutputTypes {
		if output == t {
			return nil
		}
	}
	return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
}

func printSummary(w io.Writer, s profile.Summary, output string) error {
	if output == jsonFormat {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintln(w, headingStyle.Render(s.CompanyName))
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	rows := [][2]string{
		{"AGENT ID", s.AgentID},
		{"CONTACT", s.Contact},
		{"INDUSTRIES", s.Industries},
		{"GEOGRAPHY", s.Geo},
		{"COMPANY SIZE", s.CompanySize},
		{"TITLE", s.Title},
		{"DEPARTMENT", s.Department},
		{"COMMUNICATION", s.CommStyle},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(s.Differentiators) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Key differentiators"))
		for _, d := range s.Differentiators {
			fmt.Fprintf(w, "  • %s\n", d)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, narrativeStyle.Render(s.Narrative))
	return nil
}
