package cli

import (
	"encoding/json"
	"fmt"

	"e2e-harness/internal/infrastructure/scenariofile"

	"github.com/spf13/cobra"
)

type validation struct {
	File       string `json:"file"`
	Name       string `json:"name,omitempty"`
	Steps      int    `json:"steps"`
	Assertions int    `json:"assertions"`
	Error      string `json:"error,omitempty"`
}

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <scenario.yaml>...",
		Short:         "Check scenario files without opening a browser",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []validation
			invalid := 0
			for _, path := range args {
				v := validation{File: path}
				sc, err := scenariofile.LoadFile(path)
				if err != nil {
					v.Error = err.Error()
					invalid++
				} else {
					v.Name = sc.Name
					v.Steps = len(sc.Steps)
					v.Assertions = len(sc.Assertions)
				}
				results = append(results, v)
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for _, v := range results {
					if v.Error != "" {
						fmt.Fprintf(out, "✗ %s\n", v.Error)
						continue
					}
					fmt.Fprintf(out, "✓ %s: %s (%d steps, %d assertions)\n", v.File, v.Name, v.Steps, v.Assertions)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d scenario file(s) invalid", invalid, len(args))
			}
			return nil
		},
	}
}
