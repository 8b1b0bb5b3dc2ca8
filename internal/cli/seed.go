package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// SeedOptions inserts a sample agent record, standing in for the automation
// service during local development.
type SeedOptions struct {
	GlobalOptions

	Company     string
	UserName    string
	Email       string
	Industries  []string
	Geo         string
	Employees   int
	Locations   int
	Revenue     float64
	Title       string
	Department  string
	Motivations string
	Traits      string
	Diffs       []string
	CommStyle   string
}

// DefaultSeedOptions returns a plausible sample profile.
func DefaultSeedOptions() *SeedOptions {
	return &SeedOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Company:       "Acme Dental",
		UserName:      "Jane Doe",
		Email:         "jane@acme.test",
		Industries:    []string{"Healthcare", "Professional Services"},
		Geo:           "Texas (State), Denver, CO",
		Employees:     50,
		Locations:     3,
		Revenue:       5_000_000,
		Title:         "Practice Owner",
		Department:    "Operations",
		Motivations:   "fill open appointment slots",
		Traits:        "value fast response times",
		Diffs:         []string{"Same-day appointments", "Bilingual staff", "Transparent pricing"},
		CommStyle:     "Warm, concise and professional",
	}
}

// NewCmdSeed creates the seed command.
func NewCmdSeed() *cobra.Command {
	o := DefaultSeedOptions()
	cmd := &cobra.Command{
		Use:   "seed [AGENT_ID]",
		Short: "Insert a sample agent record. A new ID is generated when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

// Bind registers the seed flags.
func (o *SeedOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Company, "company", o.Company, "Company name.")
	fs.StringVar(&o.UserName, "name", o.UserName, "Contact name.")
	fs.StringVar(&o.Email, "email", o.Email, "Contact email.")
	fs.StringSliceVar(&o.Industries, "industries", o.Industries, "Target industries.")
	fs.StringVar(&o.Geo, "geo", o.Geo, "Target geography.")
	fs.IntVar(&o.Employees, "employees", o.Employees, "Typical employee count.")
	fs.IntVar(&o.Locations, "locations", o.Locations, "Typical number of locations.")
	fs.Float64Var(&o.Revenue, "revenue", o.Revenue, "Typical annual revenue in USD.")
	fs.StringVar(&o.Title, "title", o.Title, "Target job title.")
	fs.StringVar(&o.Department, "department", o.Department, "Target department.")
	fs.StringVar(&o.Motivations, "motivations", o.Motivations, "Buyer motivations.")
	fs.StringVar(&o.Traits, "traits", o.Traits, "Buying traits.")
	fs.StringArrayVar(&o.Diffs, "differentiator", o.Diffs, "Key differentiators; repeat the flag for several.")
	fs.StringVar(&o.CommStyle, "comm-style", o.CommStyle, "Communication style.")
}

// Validate checks the optional agent ID.
func (o *SeedOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if len(args) == 1 && !identity.IsValidAgentID(args[0]) {
		return fmt.Errorf("invalid agent id %q", args[0])
	}
	return nil
}

// Record builds the record to insert.
func (o *SeedOptions) Record(agentID string) *domain.AgentRecord {
	return &domain.AgentRecord{
		AgentID:            agentID,
		UserName:           o.UserName,
		CompanyName:        o.Company,
		Email:              o.Email,
		ICPIndustries:      strings.Join(o.Industries, ", "),
		ICPGeo:             o.Geo,
		ICPEmployees:       o.Employees,
		ICPLocations:       o.Locations,
		ICPRevenue:         o.Revenue,
		ICPTitle:           o.Title,
		ICPDepartment:      o.Department,
		ICPMotivations:     o.Motivations,
		ICPTraits:          o.Traits,
		KeyDifferentiators: strings.Join(o.Diffs, "; "),
		CommStyle:          o.CommStyle,
		CreatedAt:          time.Now(),
	}
}

// Run inserts the record and prints its agent ID.
func (o *SeedOptions) Run(ctx context.Context, args []string) error {
	agentID := identity.NewAgentID()
	if len(args) == 1 {
		agentID = strings.ToLower(args[0])
	}

	repo, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.CreateAgent(ctx, o.Record(agentID)); err != nil {
		return fmt.Errorf("seed agent %s: %w", agentID, err)
	}
	fmt.Fprintln(o.out, agentID)
	return nil
}
