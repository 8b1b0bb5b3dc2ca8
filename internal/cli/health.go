package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ashureev/agent-onboarding/internal/healthcheck"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthOptions queries the server's gRPC health service.
type HealthOptions struct {
	Address string
	Service string
}

// DefaultHealthOptions reads the address from GRPC_HEALTH_ADDR.
func DefaultHealthOptions() *HealthOptions {
	addr := os.Getenv("GRPC_HEALTH_ADDR")
	if addr == "" {
		addr = "localhost:9090"
	}
	return &HealthOptions{Address: addr, Service: healthcheck.StoreService}
}

// NewCmdHealth creates the health command.
func NewCmdHealth() *cobra.Command {
	o := DefaultHealthOptions()
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the server's gRPC health service.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), cmd)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

// Bind registers the health flags.
func (o *HealthOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.Address, "addr", o.Address, "gRPC health address.")
	fs.StringVar(&o.Service, "service", o.Service, `Service to check; "" checks the server as a whole.`)
}

// Run prints the serving status and fails unless it is SERVING.
func (o *HealthOptions) Run(ctx context.Context, cmd *cobra.Command) error {
	c, err := healthcheck.Dial(ctx, healthcheck.DefaultClientConfig(o.Address), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	status, err := c.Check(ctx, o.Service)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), status.String())
	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %q is %s", o.Service, status)
	}
	return nil
}
