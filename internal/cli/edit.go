package cli

import (
	"context"
	"fmt"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EditOptions applies field edits to an agent profile.
type EditOptions struct {
	GlobalOptions

	Industries      []string
	Geo             []string
	Titles          []string
	Departments     []string
	Differentiators []string
	Employees       int
	Locations       int
	Revenue         float64
	Traits          string
	Motivations     string
	CommStyle       string
	DryRun          bool
	Output          string

	flags *pflag.FlagSet
}

// DefaultEditOptions returns the edit defaults.
func DefaultEditOptions() *EditOptions {
	return &EditOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        textFormat,
	}
}

// NewCmdEdit creates the edit command.
func NewCmdEdit() *cobra.Command {
	o := DefaultEditOptions()
	cmd := &cobra.Command{
		Use:   "edit AGENT_ID",
		Short: "Edit an agent profile and print the new narrative.",
		Example: `  onboardctl edit 0f8fad5b-d9cb-469f-a165-70867728950e --industries Healthcare,Retail --geo "Denver, CO"
  onboardctl edit 0f8fad5b-d9cb-469f-a165-70867728950e --title Owner --dry-run`,
		Args: cobra.ExactArgs(1),
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

// Bind registers the edit flags.
func (o *EditOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.flags = fs

	fs.StringSliceVar(&o.Industries, "industries", nil, "Target industries.")
	fs.StringArrayVar(&o.Geo, "geo", nil, "Target locations; repeat the flag for several.")
	fs.StringArrayVar(&o.Titles, "title", nil, "Target job titles; repeat the flag for several.")
	fs.StringArrayVar(&o.Departments, "department", nil, "Target departments; repeat the flag for several.")
	fs.StringArrayVar(&o.Differentiators, "differentiator", nil, "Key differentiators; repeat the flag for several.")
	fs.IntVar(&o.Employees, "employees", 0, "Typical employee count of the target company.")
	fs.IntVar(&o.Locations, "locations", 0, "Typical number of locations.")
	fs.Float64Var(&o.Revenue, "revenue", 0, "Typical annual revenue in USD.")
	fs.StringVar(&o.Traits, "traits", "", "Buying traits.")
	fs.StringVar(&o.Motivations, "motivations", "", "Buyer motivations.")
	fs.StringVar(&o.CommStyle, "comm-style", "", "Communication style.")
	fs.BoolVar(&o.DryRun, "dry-run", false, "Print the narrative without saving.")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (text, json).")
}

// Validate checks the agent ID, output format and that something changes.
func (o *EditOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if !identity.IsValidAgentID(args[0]) {
		return fmt.Errorf("invalid agent id %q", args[0])
	}
	if o.Employees < 0 || o.Locations < 0 || o.Revenue < 0 {
		return fmt.Errorf("employees, locations and revenue must not be negative")
	}
	return validateOutput(o.Output)
}

// Apply writes the changed flags onto draft.
func (o *EditOptions) Apply(draft *domain.EditableDraft) {
	changed := func(name string) bool { return o.flags != nil && o.flags.Changed(name) }

	if changed("industries") {
		draft.Industries = o.Industries
	}
	if changed("geo") {
		draft.Geo = o.Geo
	}
	if changed("title") {
		draft.Titles = o.Titles
	}
	if changed("department") {
		draft.Departments = o.Departments
	}
	if changed("differentiator") {
		draft.Differentiators = o.Differentiators
	}
	if changed("employees") {
		draft.ICPEmployees = o.Employees
	}
	if changed("locations") {
		draft.ICPLocations = o.Locations
	}
	if changed("revenue") {
		draft.ICPRevenue = o.Revenue
	}
	if changed("traits") {
		draft.ICPTraits = o.Traits
	}
	if changed("motivations") {
		draft.ICPMotivations = o.Motivations
	}
	if changed("comm-style") {
		draft.CommStyle = o.CommStyle
	}
}

// Run loads the draft, applies the edits and saves it unless DryRun is set.
func (o *EditOptions) Run(ctx context.Context, args []string) error {
	repo, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	editor := profile.NewEditor(repo, nil)
	draft, err := editor.Draft(ctx, args[0])
	if err != nil {
		return err
	}
	o.Apply(&draft)

	if o.DryRun {
		fmt.Fprintln(o.out, profile.DraftNarrative(draft))
		return nil
	}

	rec, err := editor.Save(ctx, args[0], draft)
	if err != nil {
		return err
	}
	return printSummary(o.out, profile.Summarize(*rec), o.Output)
}
