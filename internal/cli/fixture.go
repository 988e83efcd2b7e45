package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"e2e-harness/internal/infrastructure/fixture"

	"github.com/spf13/cobra"
)

type FixtureOptions struct {
	Addr      string
	SlowDelay time.Duration
	Quiet     bool
}

// NewFixtureCommand serves the bundled clinic app so the sample scenarios
// have something to run against.
func NewFixtureCommand() *cobra.Command {
	opts := &FixtureOptions{}

	cmd := &cobra.Command{
		Use:           "fixture",
		Short:         "Serve the sample clinic application",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			handlerOpts := fixture.Options{SlowDelay: opts.SlowDelay}
			if !opts.Quiet {
				handlerOpts.AccessLog = cmd.ErrOrStderr()
			}

			ln, err := net.Listen("tcp", opts.Addr)
			if err != nil {
				return fmt.Errorf("fixture listener: %w", err)
			}
			srv := &http.Server{Handler: fixture.NewHandler(handlerOpts), ReadHeaderTimeout: 5 * time.Second}
			fmt.Fprintf(cmd.OutOrStdout(), "clinic fixture listening on http://%s\n", ln.Addr())

			errc := make(chan error, 1)
			go func() { errc <- srv.Serve(ln) }()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8089", "listen address")
	cmd.Flags().DurationVar(&opts.SlowDelay, "slow-delay", 2*time.Second, "how long /slow stalls")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "disable the access log")

	return cmd
}
