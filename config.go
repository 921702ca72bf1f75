package envtmpl

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// LoadResult is the outcome of Load: the composed environment together
// with the parsed template and the options it was loaded with.
type LoadResult struct {
	*Result

	// Template is the parsed template, empty when the template file is missing.
	Template *Template
	// Options are the fully resolved options.
	Options Options
}

// Decode maps the nested Env tree onto v. See Decode.
func (r *LoadResult) Decode(v any) error {
	return Decode(r.Env, v)
}

// Load reads the template and the .env file, composes them, and by default
// assigns the raw values to the process environment.
//
// opts is resolved against DOTENV_CONFIG__* variables, dotenv_config__*
// command-line arguments and the defaults (see ResolveOptions) before any
// file is read.
//
// A missing template file yields an empty template and a missing .env file
// yields no values, unless Template.ErrorOnMissingFile or ErrorOnMissingFile
// is set. With IncludeProcessEnv the process environment is laid over the
// .env values before composing.
//
// Process assignment never overwrites a variable that is already set,
// except with IncludeProcessEnv, where the composed value already accounts
// for it.
//
// Example:
//
//	res, err := envtmpl.Load(envtmpl.Options{
//	    Path:     "config/.env",
//	    Template: envtmpl.TemplateOptions{Path: "config/.env.template"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port, _ := res.Env.Lookup("http", "port")
func Load(opts Options) (*LoadResult, error) {
	resolved, err := ResolveProcessOptions(opts)
	if err != nil {
		return nil, err
	}

	debug := Deref(resolved.Debug)
	log := debugLogger(resolved.Logger, debug)
	tmplLog := debugLogger(resolved.Logger, debug || Deref(resolved.Template.Debug))
	log.Debug("load: resolved options",
		"path", resolved.Path,
		"template", resolved.Template.Path,
		"includeProcessEnv", Deref(resolved.IncludeProcessEnv),
		"assignToProcessEnv", Deref(resolved.AssignToProcessEnv),
	)

	tmpl, err := readTemplate(resolved.Template, tmplLog)
	if err != nil {
		return nil, err
	}

	raw, err := readDotenv(resolved.Path, Deref(resolved.ErrorOnMissingFile), log)
	if err != nil {
		return nil, err
	}
	includeProcessEnv := Deref(resolved.IncludeProcessEnv)
	if includeProcessEnv {
		for _, pair := range os.Environ() {
			if k, v, ok := cutEnv(pair); ok {
				raw[k] = v
			}
		}
	}

	composeOpts := resolved.ComposeOptions
	composeOpts.Logger = log
	res, err := Compose(raw, tmpl, composeOpts)
	if err != nil {
		return nil, err
	}

	if Deref(resolved.AssignToProcessEnv) {
		if err := assignToProcessEnv(res.RawEnv, includeProcessEnv, log); err != nil {
			return nil, err
		}
	}

	return &LoadResult{Result: res, Template: tmpl, Options: resolved}, nil
}

// ParseFile reads and parses the template file at path.
func ParseFile(path string, opts ParseOptions) (*Template, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	tmpl, err := Parse(string(src), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tmpl, nil
}

func readTemplate(opts TemplateOptions, log *slog.Logger) (*Template, error) {
	tmpl, err := ParseFile(opts.Path, ParseOptions{
		ErrorOnMissingAnnotation: Deref(opts.ErrorOnMissingAnnotation),
		Logger:                   log,
	})
	if errors.Is(err, fs.ErrNotExist) && !Deref(opts.ErrorOnMissingFile) {
		log.Debug("load: template file not found, using an empty template", "path", opts.Path)
		return newTemplate(), nil
	}
	return tmpl, err
}

func readDotenv(path string, errorOnMissing bool, log *slog.Logger) (map[string]string, error) {
	raw, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) && !errorOnMissing {
		log.Debug("load: .env file not found", "path", path)
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return raw, nil
}

func assignToProcessEnv(raw map[string]string, overwrite bool, log *slog.Logger) error {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, set := os.LookupEnv(key); set && !overwrite {
			log.Debug("load: variable is already set in the process environment and will not be overwritten", "name", key)
			continue
		}
		if err := os.Setenv(key, raw[key]); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

func debugLogger(base *slog.Logger, enabled bool) *slog.Logger {
	if base != nil {
		return base
	}
	if !enabled {
		return loggerOrDiscard(nil)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// cutEnv splits an os.Environ entry. Entries with an empty name, such as
// the per-drive "=C:" variables on Windows, are skipped.
func cutEnv(pair string) (string, string, bool) {
	k, v, ok := strings.Cut(pair, "=")
	if !ok || k == "" {
		return "", "", false
	}
	return k, v, true
}
