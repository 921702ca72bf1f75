package envtmpl

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-viper/mapstructure/v2"
	"github.com/iancoleman/strcase"
)

// EnvPrefix prefixes the environment variables that configure Load,
// e.g. DOTENV_CONFIG__RENAME__ENABLED=true.
const EnvPrefix = "DOTENV_CONFIG__"

// ArgPrefix prefixes the command-line arguments that configure Load,
// e.g. dotenv_config__rename__enabled=true.
const ArgPrefix = "dotenv_config__"

// TemplateOptions controls how Load finds and parses the template.
type TemplateOptions struct {
	// Path of the template file (default ".env.template").
	Path string `mapstructure:"path"`
	// ErrorOnMissingAnnotation fails on variables without an annotation block.
	ErrorOnMissingAnnotation *bool `mapstructure:"errorOnMissingAnnotation"`
	// ErrorOnMissingFile makes a missing template file fatal. By default
	// it yields an empty template.
	ErrorOnMissingFile *bool `mapstructure:"errorOnMissingFile"`
	// Debug logs template parsing.
	Debug *bool `mapstructure:"debug"`
}

// Options is the full configuration of Load. Pointer fields are unset when
// nil, so that every layer of ResolveOptions can tell "false" from "not given".
type Options struct {
	ComposeOptions `mapstructure:",squash"`

	// Path of the .env file (default ".env").
	Path string `mapstructure:"path"`
	// ErrorOnMissingFile makes a missing .env file fatal.
	ErrorOnMissingFile *bool `mapstructure:"errorOnMissingFile"`
	// Debug logs loading and composing.
	Debug *bool `mapstructure:"debug"`
	// IncludeProcessEnv overlays the process environment on the .env values.
	IncludeProcessEnv *bool `mapstructure:"includeProcessEnv"`
	// AssignToProcessEnv writes the raw result into the process environment (default true).
	AssignToProcessEnv *bool `mapstructure:"assignToProcessEnv"`

	Template TemplateOptions `mapstructure:"template"`
}

func defaultOptions() Options {
	return Options{
		ComposeOptions: ComposeOptions{
			UnknownVariables: UnknownKeep,
			Rename: RenameOptions{
				CaseStyle:        CamelCase,
				NestingDelimiter: Ref(DefaultNestingDelimiter),
			},
		},
		Path:               ".env",
		ErrorOnMissingFile: Ref(false),
		Debug:              Ref(false),
		IncludeProcessEnv:  Ref(false),
		AssignToProcessEnv: Ref(true),
		Template: TemplateOptions{
			Path:                     ".env.template",
			ErrorOnMissingAnnotation: Ref(false),
			ErrorOnMissingFile:       Ref(false),
			Debug:                    Ref(false),
		},
	}
}

// ResolveOptions merges the option layers into one fully resolved Options.
//
// Precedence, highest first:
//  1. callSite: options passed by the caller
//  2. fromEnv: options read from DOTENV_CONFIG__* variables
//  3. fromArgs: options read from dotenv_config__* arguments
//  4. built-in defaults
//
// Renaming is enabled by default when any layer sets a rename field.
func ResolveOptions(callSite, fromEnv, fromArgs Options) (Options, error) {
	out := callSite
	for _, layer := range []Options{fromEnv, fromArgs} {
		if err := mergo.Merge(&out, layer, mergo.WithoutDereference); err != nil {
			return Options{}, fmt.Errorf("error merging options: %w", err)
		}
	}
	if out.Rename.Enabled == nil {
		out.Rename.Enabled = Ref(out.Rename.present())
	}
	if err := mergo.Merge(&out, defaultOptions(), mergo.WithoutDereference); err != nil {
		return Options{}, fmt.Errorf("error merging options: %w", err)
	}
	if _, err := out.ComposeOptions.resolve(); err != nil {
		return Options{}, err
	}
	return out, nil
}

// ResolveProcessOptions resolves callSite against the process environment
// and command-line arguments.
func ResolveProcessOptions(callSite Options) (Options, error) {
	fromEnv, err := OptionsFromEnv(os.Environ())
	if err != nil {
		return Options{}, err
	}
	var args []string
	if len(os.Args) > 1 {
		args = os.Args[1:]
	}
	fromArgs, err := OptionsFromArgs(args)
	if err != nil {
		return Options{}, err
	}
	return ResolveOptions(callSite, fromEnv, fromArgs)
}

// envOptions mirrors Options with flat, prefix-relative variable names.
type envOptions struct {
	Path               string  `env:"PATH"`
	ErrorOnMissingFile *bool   `env:"ERROR_ON_MISSING_FILE"`
	Debug              *bool   `env:"DEBUG"`
	IncludeProcessEnv  *bool   `env:"INCLUDE_PROCESS_ENV"`
	AssignToProcessEnv *bool   `env:"ASSIGN_TO_PROCESS_ENV"`
	UnknownVariables   string  `env:"UNKNOWN_VARIABLES"`
	RenameEnabled      *bool   `env:"RENAME__ENABLED"`
	RenameCaseStyle    string  `env:"RENAME__CASE_STYLE"`
	RenameDelimiter    *string `env:"RENAME__NESTING_DELIMITER"`

	TemplatePath                     string `env:"TEMPLATE__PATH"`
	TemplateDebug                    *bool  `env:"TEMPLATE__DEBUG"`
	TemplateErrorOnMissingAnnotation *bool  `env:"TEMPLATE__ERROR_ON_MISSING_ANNOTATION"`
	TemplateErrorOnMissingFile       *bool  `env:"TEMPLATE__ERROR_ON_MISSING_FILE"`
}

// OptionsFromEnv reads the DOTENV_CONFIG__* variables out of environ, given
// in os.Environ form. Booleans accept true/yes/false/no.
func OptionsFromEnv(environ []string) (Options, error) {
	vars := make(map[string]string, len(environ))
	for _, pair := range environ {
		k, v, ok := cutEnv(pair)
		if !ok {
			continue
		}
		vars[k] = v
	}

	var eo envOptions
	err := env.ParseWithOptions(&eo, env.Options{
		Prefix:      EnvPrefix,
		Environment: vars,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(false): parseBoolOption,
		},
	})
	if err != nil {
		return Options{}, fmt.Errorf("error getting env options: %w", err)
	}

	return Options{
		ComposeOptions: ComposeOptions{
			UnknownVariables: UnknownPolicy(eo.UnknownVariables),
			Rename: RenameOptions{
				Enabled:          eo.RenameEnabled,
				CaseStyle:        CaseStyle(eo.RenameCaseStyle),
				NestingDelimiter: eo.RenameDelimiter,
			},
		},
		Path:               eo.Path,
		ErrorOnMissingFile: eo.ErrorOnMissingFile,
		Debug:              eo.Debug,
		IncludeProcessEnv:  eo.IncludeProcessEnv,
		AssignToProcessEnv: eo.AssignToProcessEnv,
		Template: TemplateOptions{
			Path:                     eo.TemplatePath,
			ErrorOnMissingAnnotation: eo.TemplateErrorOnMissingAnnotation,
			ErrorOnMissingFile:       eo.TemplateErrorOnMissingFile,
			Debug:                    eo.TemplateDebug,
		},
	}, nil
}

func parseBoolOption(raw string) (any, error) {
	v, err := Convert(raw, TypeBoolean)
	if err != nil {
		return nil, err
	}
	b, _ := v.AsBool()
	return b, nil
}

// argOptionTypes lists the recognised argument keys, relative to ArgPrefix.
var argOptionTypes = map[string][]TypeTag{
	"path":                                  {TypeString},
	"error_on_missing_file":                 {TypeBoolean},
	"debug":                                 {TypeBoolean},
	"include_process_env":                   {TypeBoolean},
	"assign_to_process_env":                 {TypeBoolean},
	"unknown_variables":                     {TypeString},
	"rename__enabled":                       {TypeBoolean},
	"rename__case_style":                    {TypeString},
	"rename__nesting_delimiter":             {TypeString},
	"template__path":                        {TypeString},
	"template__debug":                       {TypeBoolean},
	"template__error_on_missing_annotation": {TypeBoolean},
	"template__error_on_missing_file":       {TypeBoolean},
}

var reArgOption = func() *regexp.Regexp {
	keys := make([]string, 0, len(argOptionTypes))
	for k := range argOptionTypes {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// longest first so that no key shadows a longer one
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return regexp.MustCompile(`^` + ArgPrefix + `(` + strings.Join(keys, "|") + `)=(.*)$`)
}()

// OptionsFromArgs reads dotenv_config__key=value arguments. Unrecognised
// arguments are ignored.
//
// Example:
//
//	go run . dotenv_config__rename__enabled=true dotenv_config__path=/etc/app.env
func OptionsFromArgs(args []string) (Options, error) {
	tree := make(map[string]any)
	for _, arg := range args {
		m := reArgOption.FindStringSubmatch(arg)
		if m == nil {
			continue
		}
		path := strings.Split(m[1], "__")
		for i, seg := range path {
			path[i] = strcase.ToLowerCamel(seg)
		}
		v, err := Convert(m[2], argOptionTypes[m[1]]...)
		if err != nil {
			return Options{}, fmt.Errorf("failed to set option [%s]: %w", strings.Join(path, "."), err)
		}
		setNested(tree, path, v.Interface())
	}

	var opts Options
	if err := mapstructure.Decode(tree, &opts); err != nil {
		return Options{}, fmt.Errorf("error decoding argument options: %w", err)
	}
	return opts, nil
}

func setNested(tree map[string]any, path []string, v any) {
	cur := tree
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = v
}
