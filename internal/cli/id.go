package cli

import (
	"fmt"

	"github.com/ashureev/agent-onboarding/internal/identity"
	"github.com/spf13/cobra"
)

// NewCmdID prints a fresh agent identifier.
func NewCmdID() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print a new agent ID.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), identity.NewAgentID())
		},
	}
}
