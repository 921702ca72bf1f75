package envtmpl

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/iancoleman/strcase"
)

// UnknownPolicy decides what happens to variables the template does not declare.
type UnknownPolicy string

const (
	UnknownKeep   UnknownPolicy = "keep"
	UnknownRemove UnknownPolicy = "remove"
	UnknownError  UnknownPolicy = "error"
)

// CaseStyle is the case applied to renamed path segments.
type CaseStyle string

const (
	CamelCase CaseStyle = "camelCase"
	SnakeCase CaseStyle = "snake_case"
)

// DefaultNestingDelimiter splits variable names into nested path segments.
const DefaultNestingDelimiter = "__"

// RenameOptions controls how the flat converted environment is reshaped
// into the nested Env tree. The block counts as present, and renaming is
// enabled by default, as soon as any field is set.
type RenameOptions struct {
	Enabled   *bool     `mapstructure:"enabled"`
	CaseStyle CaseStyle `mapstructure:"caseStyle"`
	// NestingDelimiter nil means "__"; a pointer to "" disables nesting.
	NestingDelimiter *string `mapstructure:"nestingDelimiter"`
}

func (r RenameOptions) present() bool {
	return r.Enabled != nil || r.CaseStyle != "" || r.NestingDelimiter != nil
}

// ComposeOptions controls Compose. The zero value keeps unknown variables
// and does not rename.
type ComposeOptions struct {
	UnknownVariables UnknownPolicy `mapstructure:"unknownVariables"`
	Rename           RenameOptions `mapstructure:"rename"`
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger `mapstructure:"-"`
}

type composeSettings struct {
	unknown   UnknownPolicy
	rename    bool
	caseStyle CaseStyle
	delimiter string
}

func (o ComposeOptions) resolve() (composeSettings, error) {
	s := composeSettings{
		unknown:   o.UnknownVariables,
		rename:    Deref(o.Rename.Enabled),
		caseStyle: o.Rename.CaseStyle,
		delimiter: DefaultNestingDelimiter,
	}
	if o.Rename.Enabled == nil {
		s.rename = o.Rename.present()
	}
	if o.Rename.NestingDelimiter != nil {
		s.delimiter = *o.Rename.NestingDelimiter
	}

	switch s.unknown {
	case "":
		s.unknown = UnknownKeep
	case UnknownKeep, UnknownRemove, UnknownError:
	default:
		return s, fmt.Errorf("invalid unknown variables policy %q: must be keep|remove|error", s.unknown)
	}
	switch s.caseStyle {
	case "":
		s.caseStyle = CamelCase
	case CamelCase, SnakeCase:
	default:
		return s, fmt.Errorf("invalid case style %q: must be camelCase|snake_case", s.caseStyle)
	}
	return s, nil
}

// Result is the outcome of Compose.
type Result struct {
	// RawEnv holds string values: the originals, or raw defaults for absent optional variables.
	RawEnv map[string]string
	// ConvertedEnv holds typed values keyed by variable name.
	ConvertedEnv *Object
	// Env is ConvertedEnv renamed and nested, or a copy of it when renaming is disabled.
	Env *Object

	secretKeys  []string
	secretPaths [][]string
}

// Compose merges the raw environment with the template contracts.
//
// Variables are checked before anything is converted: under UnknownError
// every undeclared variable is reported in one *UnknownVariableError, and
// every absent or empty required variable is reported in one
// *MissingRequiredError. Absent optional variables take their defaults, or
// Null when none is declared.
//
// Output order is template declaration order followed by the kept unknown
// variables in lexical order. When renaming, a path running into an
// existing value overwrites it: the last write wins.
func Compose(raw map[string]string, tmpl *Template, opts ComposeOptions) (*Result, error) {
	s, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	log := loggerOrDiscard(opts.Logger)

	var unknowns []string
	for key := range raw {
		if _, ok := tmpl.Lookup(key); !ok {
			unknowns = append(unknowns, key)
		}
	}
	sort.Strings(unknowns)
	if s.unknown == UnknownError && len(unknowns) > 0 {
		return nil, &UnknownVariableError{Names: unknowns}
	}

	names := tmpl.Names()
	var missing []string
	for _, name := range names {
		ann, _ := tmpl.Lookup(name)
		if ann.Required && raw[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingRequiredError{Names: missing}
	}

	res := &Result{
		RawEnv:       make(map[string]string, len(raw)+len(names)),
		ConvertedEnv: NewObject(),
	}
	for _, name := range names {
		ann, _ := tmpl.Lookup(name)
		val := raw[name]

		var converted Value
		if !ann.Required && val == "" {
			res.RawEnv[name] = ann.RawDefault
			if ann.HasDefault {
				converted = ann.Default.Clone()
			}
			log.Debug("compose: using default", "name", name, "hasDefault", ann.HasDefault)
		} else {
			res.RawEnv[name] = val
			converted, err = Convert(val, ann.Types...)
			if err != nil {
				if ce, ok := err.(*ConversionError); ok {
					ce.Variable = name
				}
				return nil, err
			}
		}
		if err := checkAssertion(name, ann, converted); err != nil {
			return nil, err
		}
		res.ConvertedEnv.Set(name, converted)
		if ann.Secret {
			res.secretKeys = append(res.secretKeys, name)
		}
	}
	if s.unknown == UnknownKeep {
		for _, name := range unknowns {
			res.RawEnv[name] = raw[name]
			res.ConvertedEnv.Set(name, String(raw[name]))
		}
	} else if len(unknowns) > 0 {
		log.Debug("compose: removed unknown variables", "names", unknowns)
	}

	if !s.rename {
		res.Env = res.ConvertedEnv.Clone()
		for _, key := range res.secretKeys {
			res.secretPaths = append(res.secretPaths, []string{key})
		}
		return res, nil
	}

	res.Env = NewObject()
	res.ConvertedEnv.Range(func(key string, v Value) bool {
		ann, _ := tmpl.Lookup(key)
		path := s.keyPath(key, ann)
		if len(path) == 0 {
			log.Debug("compose: variable has an empty output path", "name", key)
			return true
		}
		res.Env.SetPath(path, v.Clone())
		if ann.Secret {
			res.secretPaths = append(res.secretPaths, path)
		}
		return true
	})
	return res, nil
}

// keyPath is the explicit Name split on dots, or the key split on the
// nesting delimiter with every segment case-converted.
func (s composeSettings) keyPath(key string, ann Annotation) []string {
	if ann.Name != "" {
		return splitNonEmpty(ann.Name, ".")
	}
	segs := []string{key}
	if s.delimiter != "" {
		segs = splitNonEmpty(key, s.delimiter)
	}
	for i, seg := range segs {
		segs[i] = toCase(seg, s.caseStyle)
	}
	return segs
}

func toCase(s string, style CaseStyle) string {
	switch style {
	case CamelCase:
		return strcase.ToLowerCamel(s)
	case SnakeCase:
		return strcase.ToSnake(s)
	default:
		return s
	}
}

func splitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// checkAssertion evaluates the @assert expression of ann with the converted
// value bound to "value". Null values are not checked.
func checkAssertion(name string, ann Annotation, v Value) error {
	if ann.program == nil || v.IsNull() {
		return nil
	}
	out, err := expr.Run(ann.program, map[string]any{"value": v.Interface()})
	if err != nil {
		return &AssertionError{Variable: name, Expr: ann.Assert, Cause: err}
	}
	if ok, _ := out.(bool); !ok {
		return &AssertionError{Variable: name, Expr: ann.Assert}
	}
	return nil
}
