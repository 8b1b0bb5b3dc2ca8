package main

import (
	"log/slog"
	"os"

	"github.com/ashureev/agent-onboarding/internal/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	command := NewOnboardCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewOnboardCtlCommand returns the root command.
func NewOnboardCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboardctl [command]",
		Short: "onboardctl builds, inspects and edits onboarding agents.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdBuild())
	cmd.AddCommand(cli.NewCmdShow())
	cmd.AddCommand(cli.NewCmdEdit())
	cmd.AddCommand(cli.NewCmdSeed())
	cmd.AddCommand(cli.NewCmdID())
	cmd.AddCommand(cli.NewCmdHealth())

	return cmd
}
