package envtmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	tmpl := mustParse(t, `##
# Listen port.
# @optional {number|string} [http.port=8080]
PORT=

##
# @required {string}
# @secret
API_KEY=

##
# @optional {string} = supersecret
# @secret
# @assert len(value) > 3
SESSION_KEY=

UNANNOTATED=
`)

	settings := Settings(tmpl)
	require.Len(t, settings, 4)

	tests := []struct {
		name       string
		path       string
		types      string
		def        string
		hasDefault bool
		required   bool
		secret     bool
		annotated  bool
	}{
		{name: "PORT", path: "http.port", types: "number|string", def: "8080", hasDefault: true, annotated: true},
		{name: "API_KEY", types: "string", required: true, secret: true, annotated: true},
		{name: "SESSION_KEY", types: "string", def: "sup********", hasDefault: true, secret: true, annotated: true},
		{name: "UNANNOTATED"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings[i]
			assert.Equal(t, tt.name, s.Name)
			assert.Equal(t, tt.path, s.Path)
			assert.Equal(t, tt.types, s.TypeList())
			assert.Equal(t, tt.def, s.Default)
			assert.Equal(t, tt.hasDefault, s.HasDefault)
			assert.Equal(t, tt.required, s.Required)
			assert.Equal(t, tt.secret, s.Secret)
			assert.Equal(t, tt.annotated, s.Annotated)
		})
	}

	assert.Equal(t, "Listen port.", settings[0].Description)
	assert.Equal(t, "len(value) > 3", settings[2].Assert)
	assert.Equal(t, 4, settings[0].Line)

	secrets := SecretVariables(tmpl)
	require.Len(t, secrets, 2)
	assert.Equal(t, "API_KEY", secrets[0].Name)
	assert.Equal(t, "SESSION_KEY", secrets[1].Name)

	required := RequiredVariables(tmpl)
	require.Len(t, required, 1)
	assert.Equal(t, "API_KEY", required[0].Name)

	withDefaults := FilterSettings(settings, func(s VariableSetting) bool { return s.HasDefault })
	assert.Len(t, withDefaults, 2)

	assert.Empty(t, Settings(nil))
}
