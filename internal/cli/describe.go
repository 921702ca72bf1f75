package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envtmpl"
)

func newDescribeCmd(flags *rootFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "List the variables a template declares",
		Long: `List the variables a template declares with their types, defaults and
flags. Defaults of @secret variables are masked.

Examples:
  envtmpl describe
  envtmpl describe -t config/.env.template --json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := envtmpl.ResolveProcessOptions(flags.options(cmd))
			if err != nil {
				return err
			}
			tmpl, err := envtmpl.ParseFile(opts.Template.Path, envtmpl.ParseOptions{
				ErrorOnMissingAnnotation: envtmpl.Deref(opts.Template.ErrorOnMissingAnnotation),
			})
			if err != nil {
				return err
			}
			settings := envtmpl.Settings(tmpl)
			if len(settings) == 0 && !jsonOut {
				flags.printer(cmd).info(fmt.Sprintf("%s declares no variables", opts.Template.Path))
				return nil
			}

			if jsonOut {
				data, err := json.MarshalIndent(settings, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal settings: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPES\tREQUIRED\tDEFAULT\tSECRET\tPATH")
			for _, s := range settings {
				def := "-"
				if s.HasDefault {
					def = strconv.Quote(s.Default)
				}
				types := s.TypeList()
				if types == "" {
					types = "-"
				}
				path := s.Path
				if path == "" {
					path = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%t\t%s\n", s.Name, types, s.Required, def, s.Secret, path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
