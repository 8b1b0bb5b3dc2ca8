package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ShowOptions prints the profile of an agent.
type ShowOptions struct {
	GlobalOptions

	Output string
}

// DefaultShowOptions returns the show defaults.
func DefaultShowOptions() *ShowOptions {
	return &ShowOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Output:        textFormat,
	}
}

// NewCmdShow creates the show command.
func NewCmdShow() *cobra.Command {
	o := DefaultShowOptions()
	cmd := &cobra.Command{
		Use:   "show AGENT_ID",
		Short: "Display an agent profile and its narrative.",
		Args:  cobra.ExactArgs(1),
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

// Bind registers the show flags.
func (o *ShowOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (text, json).")
}

// Validate checks the agent ID and output format.
func (o *ShowOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if !identity.IsValidAgentID(args[0]) {
		return fmt.Errorf("invalid agent id %q", args[0])
	}
	return validateOutput(o.Output)
}

// Run loads and prints the agent.
func (o *ShowOptions) Run(ctx context.Context, args []string) error {
	repo, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	return showAgent(ctx, o.out, profile.NewEditor(repo, nil), args[0], o.Output)
}

func showAgent(ctx context.Context, w io.Writer, editor *profile.Editor, agentID, output string) error {
	rec, err := editor.Load(ctx, agentID)
	switch {
	case errors.Is(err, profile.ErrAgentNotFound):
		fmt.Fprintf(w, "Agent %s is not available yet. It may still be generating.\n", agentID)
		fmt.Fprintf(w, "Retry with: onboardctl show %s\n", agentID)
		return err
	case err != nil:
		fmt.Fprintf(w, "Unable to load agent %s. Retry with: onboardctl show %s\n", agentID, agentID)
		return err
	}
	return printSummary(w, profile.Summarize(*rec), output)
}
