package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vivaneiona/envtmpl"
)

// Version information, set by main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	envFile           string
	templateFile      string
	unknown           string
	caseStyle         string
	delimiter         string
	rename            bool
	strict            bool
	includeProcessEnv bool
	debug             bool
	noColor           bool
	quiet             bool
}

func newRootCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envtmpl",
		Short: "Validate and convert .env files against an annotated template",
		Long: `envtmpl checks a .env file against its .env.template, converts every
value to its declared type and prints the resulting configuration.

Options not given as flags are read from DOTENV_CONFIG__* variables and
dotenv_config__key=value arguments, e.g.:
  DOTENV_CONFIG__RENAME__CASE_STYLE=snake_case envtmpl print
  envtmpl print dotenv_config__template__path=config/.env.template`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.envFile, FlagEnvFile, "e", ".env", DescEnvFile)
	pf.StringVarP(&flags.templateFile, FlagTemplate, "t", ".env.template", DescTemplate)
	pf.StringVar(&flags.unknown, FlagUnknown, string(envtmpl.UnknownKeep), DescUnknown)
	pf.BoolVar(&flags.rename, FlagRename, false, DescRename)
	pf.StringVar(&flags.caseStyle, FlagCaseStyle, string(envtmpl.CamelCase), DescCaseStyle)
	pf.StringVar(&flags.delimiter, FlagDelimiter, envtmpl.DefaultNestingDelimiter, DescDelimiter)
	pf.BoolVar(&flags.strict, FlagStrict, false, DescStrict)
	pf.BoolVar(&flags.includeProcessEnv, FlagIncludeProcessEnv, false, DescIncludeProcessEnv)
	pf.BoolVar(&flags.debug, FlagDebug, false, DescDebug)
	pf.BoolVar(&flags.noColor, FlagNoColor, false, DescNoColor)
	pf.BoolVarP(&flags.quiet, FlagQuiet, "q", false, DescQuiet)

	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newPrintCmd(flags))
	cmd.AddCommand(newDescribeCmd(flags))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	flags := &rootFlags{}
	cmd := newRootCmd(flags)
	if err := cmd.Execute(); err != nil {
		flags.printer(cmd).error(err)
		os.Exit(1)
	}
}
