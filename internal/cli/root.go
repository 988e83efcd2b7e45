package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string // "text" | "json"
	EnvFiles []string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "harness",
		Short: "Run scripted browser scenarios against a web application",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load instead of .env and .env.<HARNESS_ENV>")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewFixtureCommand())

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
