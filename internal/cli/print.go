package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envtmpl"
)

func newPrintCmd(flags *rootFlags) *cobra.Command {
	var (
		reveal bool
		flat   bool
	)

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the converted configuration as JSON",
		Long: `Print the converted configuration as JSON.

Values of @secret variables and URL passwords are masked unless --reveal
is given.

Examples:
  envtmpl print --rename
  envtmpl print --flat
  envtmpl print --rename --case-style snake_case --reveal`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := envtmpl.Load(flags.options(cmd))
			if err != nil {
				reportLoadError(flags.printer(cmd), err)
				return err
			}

			var out string
			switch {
			case reveal:
				obj := res.Env
				if flat {
					obj = res.ConvertedEnv
				}
				data, err := json.MarshalIndent(obj, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal env: %w", err)
				}
				out = string(data)
			case flat:
				out = res.PrettyFlatString()
			default:
				out = res.PrettyString()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secret values unmasked")
	cmd.Flags().BoolVar(&flat, "flat", false, "Print the flat converted env instead of the renamed tree")
	return cmd
}
