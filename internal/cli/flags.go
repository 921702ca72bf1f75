package cli

import (
	"github.com/spf13/cobra"
	"github.com/vivaneiona/envtmpl"
)

// Common flag names and descriptions
const (
	// Flag names
	FlagEnvFile           = "env-file"
	FlagTemplate          = "template"
	FlagUnknown           = "unknown"
	FlagRename            = "rename"
	FlagCaseStyle         = "case-style"
	FlagDelimiter         = "nesting-delimiter"
	FlagStrict            = "strict"
	FlagIncludeProcessEnv = "include-process-env"
	FlagDebug             = "debug"
	FlagNoColor           = "no-color"
	FlagQuiet             = "quiet"

	// Flag descriptions
	DescEnvFile           = "Path to the .env file"
	DescTemplate          = "Path to the annotated template"
	DescUnknown           = "Policy for variables missing from the template: keep|remove|error"
	DescRename            = "Rename variables into a nested tree"
	DescCaseStyle         = "Case of renamed keys: camelCase|snake_case"
	DescDelimiter         = "Delimiter splitting names into nested keys (empty disables nesting)"
	DescStrict            = "Fail on variables without an annotation"
	DescIncludeProcessEnv = "Lay the process environment over the .env values"
	DescDebug             = "Enable debug logging"
	DescNoColor           = "Disable colored output"
	DescQuiet             = "Suppress non-error output"
)

// options turns the flags given on the command line into call-site
// options. Flags left at their defaults stay unset so that environment and
// argument options still apply. The process environment is never modified.
func (f *rootFlags) options(cmd *cobra.Command) envtmpl.Options {
	changed := cmd.Flags().Changed

	opts := envtmpl.Options{AssignToProcessEnv: envtmpl.Ref(false)}
	if changed(FlagEnvFile) {
		opts.Path = f.envFile
	}
	if changed(FlagTemplate) {
		opts.Template.Path = f.templateFile
	}
	if changed(FlagUnknown) {
		opts.UnknownVariables = envtmpl.UnknownPolicy(f.unknown)
	}
	if changed(FlagRename) {
		opts.Rename.Enabled = envtmpl.Ref(f.rename)
	}
	if changed(FlagCaseStyle) {
		opts.Rename.CaseStyle = envtmpl.CaseStyle(f.caseStyle)
	}
	if changed(FlagDelimiter) {
		opts.Rename.NestingDelimiter = envtmpl.Ref(f.delimiter)
	}
	if changed(FlagStrict) {
		opts.Template.ErrorOnMissingAnnotation = envtmpl.Ref(f.strict)
	}
	if changed(FlagIncludeProcessEnv) {
		opts.IncludeProcessEnv = envtmpl.Ref(f.includeProcessEnv)
	}
	if changed(FlagDebug) {
		opts.Debug = envtmpl.Ref(f.debug)
	}
	return opts
}

func (f *rootFlags) printer(cmd *cobra.Command) *printer {
	return &printer{
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		quiet:   f.quiet,
		noColor: f.noColor,
	}
}
