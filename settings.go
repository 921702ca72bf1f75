package envtmpl

import "strings"

// VariableSetting represents metadata about a template variable
type VariableSetting struct {
	Name        string   `json:"name"`                  // Variable name as written in the template
	Path        string   `json:"path,omitempty"`        // Explicit dotted output path, if any
	Types       []string `json:"types,omitempty"`       // Candidate types, in order
	Default     string   `json:"default,omitempty"`     // Raw default value (masked for secrets)
	HasDefault  bool     `json:"hasDefault"`            // Whether a default is declared
	Required    bool     `json:"required"`              // Whether the variable is required
	Secret      bool     `json:"secret"`                // Whether the variable is marked as secret
	Annotated   bool     `json:"annotated"`             // Whether an annotation block precedes the variable
	Assert      string   `json:"assert,omitempty"`      // @assert expression source
	Description string   `json:"description,omitempty"` // Free-text comment lines
	Line        int      `json:"line"`                  // 1-based line of the declaration
}

// TypeList returns the candidate types joined the way templates write them.
func (s VariableSetting) TypeList() string {
	return strings.Join(s.Types, "|")
}

// Settings returns metadata about all variables of the template, in
// declaration order. Defaults of secret variables are masked.
func Settings(t *Template) []VariableSetting {
	names := t.Names()
	settings := make([]VariableSetting, 0, len(names))
	for _, name := range names {
		ann, _ := t.Lookup(name)

		types := make([]string, len(ann.Types))
		for i, tag := range ann.Types {
			types[i] = string(tag)
		}

		def := ann.RawDefault
		if ann.Secret {
			def = mask(def)
		}

		settings = append(settings, VariableSetting{
			Name:        name,
			Path:        ann.Name,
			Types:       types,
			Default:     def,
			HasDefault:  ann.HasDefault,
			Required:    ann.Required,
			Secret:      ann.Secret,
			Annotated:   ann.Declared(),
			Assert:      ann.Assert,
			Description: ann.Description,
			Line:        ann.Line,
		})
	}
	return settings
}

// FilterSettings returns settings matching the given predicate function
func FilterSettings(settings []VariableSetting, predicate func(VariableSetting) bool) []VariableSetting {
	var filtered []VariableSetting
	for _, setting := range settings {
		if predicate(setting) {
			filtered = append(filtered, setting)
		}
	}
	return filtered
}

// SecretVariables returns all variables marked as secrets
func SecretVariables(t *Template) []VariableSetting {
	return FilterSettings(Settings(t), func(s VariableSetting) bool {
		return s.Secret
	})
}

// RequiredVariables returns all required variables
func RequiredVariables(t *Template) []VariableSetting {
	return FilterSettings(Settings(t), func(s VariableSetting) bool {
		return s.Required
	})
}
