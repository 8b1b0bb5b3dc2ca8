package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ashureev/agent-onboarding/internal/automation"
	"github.com/ashureev/agent-onboarding/internal/build"
	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/onboarding"
	"github.com/ashureev/agent-onboarding/internal/profile"
	"github.com/ashureev/agent-onboarding/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// BuildOptions submits an onboarding form and follows the build to the
// finished profile.
type BuildOptions struct {
	GlobalOptions

	Form       domain.OnboardingForm
	Consent    bool
	Language   string
	WebhookURL string
	NoTUI      bool
	Output     string
}

// DefaultBuildOptions returns the build defaults.
func DefaultBuildOptions() *BuildOptions {
	return &BuildOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Language:      "en-US",
		Output:        textFormat,
	}
}

// NewCmdBuild creates the build command.
func NewCmdBuild() *cobra.Command {
	o := DefaultBuildOptions()
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Submit an onboarding form and wait for the agent to be built.",
		Args:  cobra.NoArgs,
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

// Bind registers the build flags.
func (o *BuildOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Form.FullName, "name", "", "Your full name.")
	fs.StringVar(&o.Form.Email, "email", "", "Your email address.")
	fs.StringVar(&o.Form.CompanyName, "company", "", "Company name.")
	fs.StringVar(&o.Form.WebsiteURL, "website", "", "Company website URL.")
	fs.StringVar(&o.Form.InstagramURL, "instagram", "", "Instagram profile URL.")
	fs.StringVar(&o.Form.BusinessDescription, "description", "", "What the business does (at least 50 characters).")
	fs.BoolVar(&o.Consent, "consent", false, "Accept the privacy policy.")
	fs.StringVar(&o.Language, "language", o.Language, "Accept-Language of the submitter; EU locales require --consent.")
	fs.StringVar(&o.WebhookURL, "webhook", "", "Automation webhook base URL (default from AUTOMATION_BASE_URL).")
	fs.BoolVar(&o.NoTUI, "no-tui", false, "Print plain progress lines instead of the interactive view.")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (text, json).")
}

// Complete loads configuration and applies the webhook override.
func (o *BuildOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	override(&o.cfg.Automation.BaseURL, o.WebhookURL)
	if o.Consent {
		consent := true
		o.Form.GDPRConsent = &consent
	}
	return nil
}

// Validate checks the output format. The form is validated when submitted.
func (o *BuildOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

// Run submits the form, renders the build and prints the resulting profile.
func (o *BuildOptions) Run(ctx context.Context, args []string) error {
	repo, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := onboarding.NewService(onboarding.Config{
		Submitter: automation.NewClient(o.cfg.AutomationOptions(), nil),
		Checker:   repo,
		Build:     o.cfg.BuildOptions(),
		TTL:       o.cfg.Build.SessionTTL,
	})
	defer svc.Shutdown()

	agentID, err := svc.Begin(ctx, o.Form, o.Language)
	if err != nil {
		var verr *onboarding.ValidationError
		if errors.As(err, &verr) {
			o.printFieldErrors(verr.Fields)
		}
		return err
	}
	fmt.Fprintf(o.out, "Agent ID: %s\n", agentID)

	sess, err := svc.Session(agentID)
	if err != nil {
		return err
	}

	var snap build.Snapshot
	if o.NoTUI {
		snap, err = o.follow(ctx, sess.Controller)
	} else {
		var m tui.Model
		m, err = tui.Run(ctx, sess.Controller, o.Form.CompanyName, os.Stdin, o.out)
		if err == nil && m.Closed() {
			fmt.Fprintln(o.out, "Build closed. The agent may still be generated; check later with: onboardctl show "+agentID)
			return nil
		}
		snap = m.Snapshot()
	}
	if err != nil {
		return err
	}

	if out, ok := sess.Outcome(); ok && !out.Accepted() {
		fmt.Fprintf(o.out, "Warning: the automation webhook did not accept the submission: %v\n", out.Err)
	}
	if snap.Result != nil && snap.Result.TimedOut {
		fmt.Fprintln(o.out, "The build timed out before the agent record appeared; trying to load it anyway.")
	}
	return showAgent(ctx, o.out, profile.NewEditor(repo, nil), agentID, o.Output)
}

// follow prints a progress line per second until the build finishes.
func (o *BuildOptions) follow(ctx context.Context, ctrl *build.Controller) (build.Snapshot, error) {
	done := ctrl.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ctrl.Cancel()
			return build.Snapshot{}, ctx.Err()
		case <-done:
			snap := ctrl.Snapshot()
			fmt.Fprintf(o.out, "[%3.0f%%] %s\n", snap.Progress*100, snap.State)
			return snap, nil
		case <-ticker.C:
			snap := ctrl.Snapshot()
			fmt.Fprintf(o.out, "[%3.0f%%] %s\n", snap.Progress*100, snap.Fact)
		}
	}
}

func (o *BuildOptions) printFieldErrors(fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(o.out, "  %s: %s\n", name, fields[name])
	}
}
