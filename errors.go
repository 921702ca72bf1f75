package envtmpl

import (
	"fmt"
	"strings"
)

// ConversionError reports that a raw value could not be coerced into any of
// the requested types. It never carries the raw value.
type ConversionError struct {
	// Variable is the variable being converted, when known.
	Variable string
	// Types are the candidate types that were attempted, in order.
	Types []TypeTag
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	var target string
	if len(e.Types) == 1 {
		target = string(e.Types[0])
	} else {
		target = "any of the types [" + joinTags(e.Types) + "]"
	}
	msg := "failed to convert the data into " + target
	if e.Variable != "" {
		msg = fmt.Sprintf("variable %s: %s", e.Variable, msg)
	}
	return msg
}

// SyntaxErrorKind classifies a TemplateSyntaxError.
type SyntaxErrorKind int

const (
	// MalformedDirective indicates an @required/@optional line that does not match its grammar.
	MalformedDirective SyntaxErrorKind = iota
	// UnknownType indicates a type tag outside the allowed set.
	UnknownType
	// ConflictingDirectives indicates a variable declared both required and optional.
	ConflictingDirectives
	// InvalidDefault indicates an @optional default that does not convert to the declared types.
	InvalidDefault
	// InvalidAssertion indicates an @assert expression that does not compile.
	InvalidAssertion
	// MissingAnnotation indicates a variable with no annotation block, in strict mode.
	MissingAnnotation
	// UnrecognizedLine indicates a line that is neither a comment nor a key-value pair.
	UnrecognizedLine
)

// TemplateSyntaxError represents a template parsing error with its 1-based line number.
type TemplateSyntaxError struct {
	Kind    SyntaxErrorKind
	Line    int
	Message string
	// Cause is the underlying error (optional), e.g. a *ConversionError for InvalidDefault.
	Cause error
}

// Error implements the error interface.
func (e *TemplateSyntaxError) Error() string {
	msg := fmt.Sprintf("failed to parse template: line %d: %s", e.Line, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TemplateSyntaxError) Unwrap() error {
	return e.Cause
}

func newSyntaxError(kind SyntaxErrorKind, line int, format string, args ...any) *TemplateSyntaxError {
	return &TemplateSyntaxError{
		Kind:    kind,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// MissingRequiredError lists every required variable that is absent or empty.
type MissingRequiredError struct {
	Names []string
}

// Error implements the error interface.
func (e *MissingRequiredError) Error() string {
	return "some required variables are missing: " + strings.Join(e.Names, ", ")
}

// UnknownVariableError lists every variable present in the environment but
// not declared in the template.
type UnknownVariableError struct {
	Names []string
}

// Error implements the error interface.
func (e *UnknownVariableError) Error() string {
	return "unknown variables are not allowed: " + strings.Join(e.Names, ", ")
}

// AssertionError reports a variable whose converted value failed its @assert expression.
type AssertionError struct {
	Variable string
	Expr     string
	Cause    error
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("variable %s: assertion %q could not be evaluated: %v", e.Variable, e.Expr, e.Cause)
	}
	return fmt.Sprintf("variable %s: assertion %q failed", e.Variable, e.Expr)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AssertionError) Unwrap() error {
	return e.Cause
}

func joinTags(tags []TypeTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
