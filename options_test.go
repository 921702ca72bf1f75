package envtmpl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromEnv(t *testing.T) {
	opts, err := OptionsFromEnv([]string{
		"DOTENV_CONFIG__PATH=config/.env",
		"DOTENV_CONFIG__DEBUG=yes",
		"DOTENV_CONFIG__ASSIGN_TO_PROCESS_ENV=no",
		"DOTENV_CONFIG__UNKNOWN_VARIABLES=remove",
		"DOTENV_CONFIG__RENAME__CASE_STYLE=snake_case",
		"DOTENV_CONFIG__RENAME__NESTING_DELIMITER=_",
		"DOTENV_CONFIG__TEMPLATE__PATH=config/.env.template",
		"DOTENV_CONFIG__TEMPLATE__ERROR_ON_MISSING_ANNOTATION=true",
		"PATH=/usr/bin",
		"=C:=C:\\",
	})
	require.NoError(t, err)

	assert.Equal(t, "config/.env", opts.Path)
	assert.Equal(t, Ref(true), opts.Debug)
	assert.Equal(t, Ref(false), opts.AssignToProcessEnv)
	assert.Nil(t, opts.IncludeProcessEnv)
	assert.Equal(t, UnknownRemove, opts.UnknownVariables)
	assert.Equal(t, SnakeCase, opts.Rename.CaseStyle)
	assert.Equal(t, Ref("_"), opts.Rename.NestingDelimiter)
	assert.Nil(t, opts.Rename.Enabled)
	assert.Equal(t, "config/.env.template", opts.Template.Path)
	assert.Equal(t, Ref(true), opts.Template.ErrorOnMissingAnnotation)
	assert.Nil(t, opts.Template.Debug)
}

func TestOptionsFromEnvInvalidBool(t *testing.T) {
	_, err := OptionsFromEnv([]string{"DOTENV_CONFIG__DEBUG=maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting env options")
}

func TestOptionsFromArgs(t *testing.T) {
	opts, err := OptionsFromArgs([]string{
		"serve",
		"--verbose",
		"dotenv_config__path=/etc/app.env",
		"dotenv_config__include_process_env=true",
		"dotenv_config__rename__enabled=yes",
		"dotenv_config__rename__nesting_delimiter=",
		"dotenv_config__template__debug=true",
		"dotenv_config__template__path=/etc/app.env.template",
		"dotenv_config__unknown=1",
		"DOTENV_CONFIG__DEBUG=true",
	})
	require.NoError(t, err)

	assert.Equal(t, "/etc/app.env", opts.Path)
	assert.Equal(t, Ref(true), opts.IncludeProcessEnv)
	assert.Equal(t, Ref(true), opts.Rename.Enabled)
	assert.Equal(t, Ref(""), opts.Rename.NestingDelimiter)
	assert.Equal(t, Ref(true), opts.Template.Debug)
	assert.Equal(t, "/etc/app.env.template", opts.Template.Path)
	assert.Nil(t, opts.Debug)
}

func TestOptionsFromArgsInvalidBool(t *testing.T) {
	_, err := OptionsFromArgs([]string{"dotenv_config__template__error_on_missing_file=maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set option [template.errorOnMissingFile]")

	var convErr *ConversionError
	assert.True(t, errors.As(err, &convErr))
}

func TestResolveOptionsDefaults(t *testing.T) {
	opts, err := ResolveOptions(Options{}, Options{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, ".env", opts.Path)
	assert.Equal(t, ".env.template", opts.Template.Path)
	assert.Equal(t, UnknownKeep, opts.UnknownVariables)
	assert.Equal(t, CamelCase, opts.Rename.CaseStyle)
	assert.Equal(t, Ref(DefaultNestingDelimiter), opts.Rename.NestingDelimiter)
	assert.False(t, Deref(opts.Rename.Enabled))
	assert.True(t, Deref(opts.AssignToProcessEnv))
	assert.False(t, Deref(opts.IncludeProcessEnv))
	assert.False(t, Deref(opts.ErrorOnMissingFile))
	assert.False(t, Deref(opts.Template.ErrorOnMissingFile))
}

func TestResolveOptionsPrecedence(t *testing.T) {
	callSite := Options{
		Path:               "call.env",
		AssignToProcessEnv: Ref(false),
	}
	fromEnv := Options{
		ComposeOptions:     ComposeOptions{UnknownVariables: UnknownRemove},
		Path:               "env.env",
		AssignToProcessEnv: Ref(true),
		Debug:              Ref(true),
	}
	fromArgs := Options{
		ComposeOptions: ComposeOptions{UnknownVariables: UnknownError},
		Path:           "args.env",
		Debug:          Ref(false),
		Template:       TemplateOptions{Path: "args.env.template"},
	}

	opts, err := ResolveOptions(callSite, fromEnv, fromArgs)
	require.NoError(t, err)

	assert.Equal(t, "call.env", opts.Path)
	assert.False(t, Deref(opts.AssignToProcessEnv))
	assert.Equal(t, UnknownRemove, opts.UnknownVariables)
	assert.True(t, Deref(opts.Debug))
	assert.Equal(t, "args.env.template", opts.Template.Path)
}

func TestResolveOptionsRenameEnabledWhenPresent(t *testing.T) {
	tests := []struct {
		name     string
		rename   RenameOptions
		expected bool
	}{
		{"absent", RenameOptions{}, false},
		{"case style", RenameOptions{CaseStyle: SnakeCase}, true},
		{"delimiter", RenameOptions{NestingDelimiter: Ref("_")}, true},
		{"explicitly disabled", RenameOptions{CaseStyle: SnakeCase, Enabled: Ref(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ResolveOptions(Options{}, Options{}, Options{
				ComposeOptions: ComposeOptions{Rename: tt.rename},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Deref(opts.Rename.Enabled))
		})
	}
}

func TestResolveOptionsInvalid(t *testing.T) {
	_, err := ResolveOptions(Options{ComposeOptions: ComposeOptions{UnknownVariables: "drop"}}, Options{}, Options{})
	assert.EqualError(t, err, `invalid unknown variables policy "drop": must be keep|remove|error`)

	_, err = ResolveOptions(Options{}, Options{ComposeOptions: ComposeOptions{
		Rename: RenameOptions{CaseStyle: "kebab-case"},
	}}, Options{})
	assert.EqualError(t, err, `invalid case style "kebab-case": must be camelCase|snake_case`)
}
