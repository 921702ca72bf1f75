package envtmpl

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Annotation is the contract a template declares for one variable.
// Annotations are built once by Parse and never modified afterwards.
type Annotation struct {
	// Required variables must be present and non-empty. They never carry defaults.
	Required bool
	// Types are the candidate types tried in order. Empty means no conversion.
	Types []TypeTag
	// Name overrides where the variable lands in the nested output, as a dotted path.
	Name string
	// RawDefault is the default exactly as written in the template.
	RawDefault string
	// Default is RawDefault converted through Types at parse time.
	Default Value
	// HasDefault reports whether the template declared a default at all.
	HasDefault bool
	// Secret marks values that are masked in pretty output.
	Secret bool
	// Assert is the source of the @assert expression, if any.
	Assert string
	// Description collects the free-text comment lines of the annotation block.
	Description string
	// Line is the 1-based line of the variable declaration.
	Line int

	program *vm.Program
}

// Declared reports whether a, rather than an empty placeholder, came from an annotation block.
func (a Annotation) Declared() bool {
	return a.Required || len(a.Types) > 0 || a.HasDefault || a.Name != "" || a.Secret || a.Assert != ""
}

// Template is the parsed form of a template file: its variables in
// declaration order, each with its Annotation.
type Template struct {
	vars *orderedmap.OrderedMap[string, Annotation]
}

func newTemplate() *Template {
	return &Template{vars: orderedmap.New[string, Annotation]()}
}

// Len returns the number of declared variables.
func (t *Template) Len() int {
	if t == nil {
		return 0
	}
	return t.vars.Len()
}

// Lookup returns the annotation of the named variable.
func (t *Template) Lookup(name string) (Annotation, bool) {
	if t == nil {
		return Annotation{}, false
	}
	return t.vars.Get(name)
}

// Names returns the declared variable names in template order.
func (t *Template) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, t.vars.Len())
	for pair := t.vars.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// ParseOptions controls Parse.
type ParseOptions struct {
	// ErrorOnMissingAnnotation fails on a variable that is not preceded by an annotation block.
	ErrorOnMissingAnnotation bool
	// Logger receives debug output. Nil discards it.
	Logger *slog.Logger
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineBlockMarker
	lineComment
	lineKeyValue
	lineUnrecognized
)

type parseState int

const (
	// stateStart: no annotation is waiting for a variable.
	stateStart parseState = iota
	// stateInBlock: reading the comment lines of an annotation block.
	stateInBlock
	// statePending: a finished annotation waits for the next variable line.
	statePending
)

const blockMarker = "##"

var (
	reKeyValue    = regexp.MustCompile(`^\s*(?:export\s+)?([\w.-]+)\s*=`)
	reComment     = regexp.MustCompile(`^\s*#\s*(.*)$`)
	reDirective   = regexp.MustCompile(`^@(\w+)`)
	reRequired    = regexp.MustCompile(`^@required\s*\{([^}]+)\}\s*(?:\[([\w.]*)\]|([\w.]+))?$`)
	reOptional    = regexp.MustCompile(`^@optional\s*\{([^}]+)\}\s*(.*)$`)
	reOptionalArg = regexp.MustCompile(`^([\w.]*)\s*(?:=(.*))?$`)
	reSecret      = regexp.MustCompile(`^@secret$`)
	reAssert      = regexp.MustCompile(`^@assert\s+(.+)$`)
)

// classifyLine decides the shape of a line. The block marker wins over the
// comment shape, and a key-value pair wins over everything but the marker.
func classifyLine(s string) (lineKind, string) {
	if s == blockMarker {
		return lineBlockMarker, ""
	}
	if m := reKeyValue.FindStringSubmatch(s); m != nil {
		return lineKeyValue, m[1]
	}
	if m := reComment.FindStringSubmatch(s); m != nil {
		return lineComment, strings.TrimSpace(m[1])
	}
	if strings.TrimSpace(s) == "" {
		return lineBlank, ""
	}
	return lineUnrecognized, ""
}

// Parse reads template text into a Template.
//
// A variable is annotated by a comment block opened with a line reading
// exactly "##":
//
//	##
//	# Port the HTTP server listens on.
//	# @optional {number} [http.port=8080]
//	# @assert value > 0 && value < 65536
//	PORT=
//
//	##
//	# @required {url}
//	# @secret
//	DATABASE_URL=
//
// Errors are *TemplateSyntaxError values carrying the 1-based line number.
func Parse(src string, opts ParseOptions) (*Template, error) {
	p := &templateParser{
		opts: opts,
		log:  loggerOrDiscard(opts.Logger),
		tmpl: newTemplate(),
	}
	if err := p.run(splitLines(src)); err != nil {
		return nil, err
	}
	return p.tmpl, nil
}

func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	return strings.Split(src, "\n")
}

type templateParser struct {
	opts    ParseOptions
	log     *slog.Logger
	tmpl    *Template
	state   parseState
	builder *annotationBuilder
}

func (p *templateParser) run(lines []string) error {
	for i, text := range lines {
		n := i + 1
		kind, content := classifyLine(text)
		p.log.Debug("template: reading line", "line", n, "state", p.state)

		if p.state == stateInBlock {
			if kind == lineComment || kind == lineBlockMarker {
				if err := p.builder.apply(content, n, p.log); err != nil {
					return err
				}
				continue
			}
			if p.builder.empty() {
				p.state = stateStart
				p.builder = nil
			} else {
				p.state = statePending
			}
		}

		switch kind {
		case lineBlockMarker:
			p.builder = &annotationBuilder{}
			p.state = stateInBlock
		case lineKeyValue:
			if err := p.bind(content, n); err != nil {
				return err
			}
		case lineComment, lineBlank:
			// ordinary comments and blank lines keep any pending annotation
		case lineUnrecognized:
			return newSyntaxError(UnrecognizedLine, n, "neither a comment or a key-value pair")
		}
	}
	return nil
}

func (p *templateParser) bind(name string, n int) error {
	var ann Annotation
	if p.state == statePending {
		ann = p.builder.build(n)
	} else {
		if p.opts.ErrorOnMissingAnnotation {
			return newSyntaxError(MissingAnnotation, n, "no annotation is found for variable [%s]", name)
		}
		p.log.Debug("template: no annotation is found for variable", "name", name, "line", n)
		ann = Annotation{Line: n}
	}
	p.tmpl.vars.Set(name, ann)
	p.state = stateStart
	p.builder = nil
	return nil
}

// annotationBuilder accumulates directives across the lines of one block.
type annotationBuilder struct {
	required    *bool
	types       []TypeTag
	name        string
	rawDefault  string
	def         Value
	hasDefault  bool
	secret      bool
	assert      string
	program     *vm.Program
	description []string
}

func (b *annotationBuilder) empty() bool {
	return b.required == nil && !b.secret && b.assert == ""
}

func (b *annotationBuilder) build(line int) Annotation {
	return Annotation{
		Required:    b.required != nil && *b.required,
		Types:       b.types,
		Name:        b.name,
		RawDefault:  b.rawDefault,
		Default:     b.def,
		HasDefault:  b.hasDefault,
		Secret:      b.secret,
		Assert:      b.assert,
		Description: strings.Join(b.description, "\n"),
		Line:        line,
		program:     b.program,
	}
}

func (b *annotationBuilder) apply(content string, n int, log *slog.Logger) error {
	m := reDirective.FindStringSubmatch(content)
	if m == nil {
		if strings.Trim(content, "#") != "" {
			b.description = append(b.description, content)
		}
		return nil
	}

	switch m[1] {
	case "required":
		log.Debug("template: found @required", "line", n)
		return b.applyRequired(content, n)
	case "optional":
		log.Debug("template: found @optional", "line", n)
		return b.applyOptional(content, n)
	case "secret":
		if !reSecret.MatchString(content) {
			return newSyntaxError(MalformedDirective, n, "@secret annotation is malformed")
		}
		b.secret = true
		return nil
	case "assert":
		am := reAssert.FindStringSubmatch(content)
		if am == nil {
			return newSyntaxError(MalformedDirective, n, "@assert annotation is malformed")
		}
		program, err := expr.Compile(am[1], expr.AsBool())
		if err != nil {
			se := newSyntaxError(InvalidAssertion, n, "@assert expression does not compile")
			se.Cause = err
			return se
		}
		b.assert = am[1]
		b.program = program
		return nil
	default:
		log.Debug("template: does not match any annotation", "line", n)
		b.description = append(b.description, content)
		return nil
	}
}

func (b *annotationBuilder) applyRequired(content string, n int) error {
	if b.required != nil && !*b.required {
		return newSyntaxError(ConflictingDirectives, n, "the variable cannot be both required and optional")
	}
	m := reRequired.FindStringSubmatch(content)
	if m == nil {
		return newSyntaxError(MalformedDirective, n, "@required annotation is malformed")
	}
	types, err := parseTypeList(m[1], n)
	if err != nil {
		return err
	}

	required := true
	b.required = &required
	b.types = types
	b.name = m[2] + m[3]
	b.rawDefault, b.def, b.hasDefault = "", Value{}, false
	return nil
}

func (b *annotationBuilder) applyOptional(content string, n int) error {
	if b.required != nil && *b.required {
		return newSyntaxError(ConflictingDirectives, n, "the variable cannot be both required and optional")
	}
	m := reOptional.FindStringSubmatch(content)
	if m == nil {
		return newSyntaxError(MalformedDirective, n, "@optional annotation is malformed")
	}
	types, err := parseTypeList(m[1], n)
	if err != nil {
		return err
	}

	// Accepts "[name=default]" as well as "name = default".
	arg := strings.TrimSpace(m[2])
	if strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]") {
		arg = arg[1 : len(arg)-1]
	}
	idx := reOptionalArg.FindStringSubmatchIndex(arg)
	if idx == nil {
		return newSyntaxError(MalformedDirective, n, "@optional annotation is malformed")
	}

	required := false
	b.required = &required
	b.types = types
	b.name = arg[idx[2]:idx[3]]
	b.rawDefault, b.def, b.hasDefault = "", Value{}, false

	if idx[4] >= 0 {
		raw := strings.TrimSpace(arg[idx[4]:idx[5]])
		def, err := Convert(raw, types...)
		if err != nil {
			se := newSyntaxError(InvalidDefault, n, "default value does not match the declared types")
			se.Cause = err
			return se
		}
		b.rawDefault, b.def, b.hasDefault = raw, def, true
	}
	return nil
}

func parseTypeList(raw string, n int) ([]TypeTag, error) {
	parts := strings.Split(raw, "|")
	types := make([]TypeTag, 0, len(parts))
	for _, part := range parts {
		t, err := ParseTypeTag(part)
		if err != nil {
			return nil, newSyntaxError(UnknownType, n, "%s", err.Error())
		}
		types = append(types, t)
	}
	return types, nil
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// String implements fmt.Stringer for debug output.
func (s parseState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateInBlock:
		return "in-block"
	case statePending:
		return "pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
