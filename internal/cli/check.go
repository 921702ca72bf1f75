package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envtmpl"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate a .env file against its template",
		Long: `Validate a .env file against its template.

Every required variable must be present and every value must convert to one
of its declared types. Variables the template does not declare are reported
as warnings, or as errors with --unknown=error.

Examples:
  envtmpl check
  envtmpl check -e config/.env -t config/.env.template --strict`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags)
		},
	}
}

func runCheck(cmd *cobra.Command, flags *rootFlags) error {
	p := flags.printer(cmd)

	res, err := envtmpl.Load(flags.options(cmd))
	if err != nil {
		reportLoadError(p, err)
		return err
	}

	if res.Template.Len() == 0 {
		p.warning(fmt.Sprintf("%s declares no variables", res.Options.Template.Path))
	} else {
		p.success(fmt.Sprintf("%s: %d variables declared", res.Options.Template.Path, res.Template.Len()))
	}
	for _, name := range res.ConvertedEnv.Keys() {
		if _, ok := res.Template.Lookup(name); !ok {
			p.warning(fmt.Sprintf("%s is not declared in the template", name))
		}
	}
	p.success(fmt.Sprintf("%s: all values match the template", res.Options.Path))
	return nil
}

// reportLoadError lists every offending variable of a load error.
func reportLoadError(p *printer, err error) {
	var missing *envtmpl.MissingRequiredError
	if errors.As(err, &missing) {
		for _, name := range missing.Names {
			p.errorMsg(fmt.Sprintf("%s is required but missing", name))
		}
	}
	var unknown *envtmpl.UnknownVariableError
	if errors.As(err, &unknown) {
		for _, name := range unknown.Names {
			p.errorMsg(fmt.Sprintf("%s is not declared in the template", name))
		}
	}
}
