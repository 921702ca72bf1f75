package envtmpl

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loadTemplate = `##
# @required {string}
# @secret
API_KEY=

##
# @optional {number} = 8080
HTTP__PORT=

##
# @optional {boolean}
FEATURE__BETA=
`

// writeFiles writes the template and .env contents into a temp dir and
// returns Options pointing at them, with process assignment disabled.
func writeFiles(t *testing.T, template, dotenv string) Options {
	t.Helper()
	dir := t.TempDir()
	opts := Options{
		Path:               filepath.Join(dir, ".env"),
		AssignToProcessEnv: Ref(false),
		Template:           TemplateOptions{Path: filepath.Join(dir, ".env.template")},
	}
	if template != "" {
		require.NoError(t, os.WriteFile(opts.Template.Path, []byte(template), 0o644))
	}
	if dotenv != "" {
		require.NoError(t, os.WriteFile(opts.Path, []byte(dotenv), 0o644))
	}
	return opts
}

func TestLoad(t *testing.T) {
	opts := writeFiles(t, loadTemplate, "API_KEY=abc123\nHTTP__PORT=9090\nEXTRA=1\n")
	opts.Rename.Enabled = Ref(true)

	res, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Template.Len())
	assert.Equal(t, opts.Path, res.Options.Path)
	assert.True(t, Deref(res.Options.Rename.Enabled))

	port, ok := res.Env.Lookup("http", "port")
	require.True(t, ok)
	assert.Equal(t, Number(9090), port)

	beta, ok := res.Env.Lookup("feature", "beta")
	require.True(t, ok)
	assert.True(t, beta.IsNull())

	extra, ok := res.Env.Lookup("extra")
	require.True(t, ok)
	assert.Equal(t, String("1"), extra)

	assert.Equal(t, map[string]string{
		"API_KEY":       "abc123",
		"HTTP__PORT":    "9090",
		"FEATURE__BETA": "",
		"EXTRA":         "1",
	}, res.RawEnv)
}

func TestLoadComposeErrors(t *testing.T) {
	opts := writeFiles(t, loadTemplate, "HTTP__PORT=eighty\n")
	_, err := Load(opts)
	var missing *MissingRequiredError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"API_KEY"}, missing.Names)

	opts = writeFiles(t, loadTemplate, "API_KEY=x\nHTTP__PORT=eighty\n")
	_, err = Load(opts)
	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "HTTP__PORT", convErr.Variable)
}

func TestLoadMissingTemplate(t *testing.T) {
	opts := writeFiles(t, "", "NAME=value\n")

	res, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Template.Len())
	v, ok := res.Env.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, String("value"), v)

	opts.Template.ErrorOnMissingFile = Ref(true)
	_, err = Load(opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "failed to read template")
}

func TestLoadMissingEnvFile(t *testing.T) {
	opts := writeFiles(t, "##\n# @optional {number} = 1\nWORKERS=\n", "")

	res, err := Load(opts)
	require.NoError(t, err)
	v, _ := res.Env.Get("WORKERS")
	assert.Equal(t, Number(1), v)

	opts.ErrorOnMissingFile = Ref(true)
	_, err = Load(opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "failed to read env file")
}

func TestLoadInvalidTemplate(t *testing.T) {
	opts := writeFiles(t, "##\n# @required {bogus}\nNAME=\n", "NAME=x\n")

	_, err := Load(opts)
	var syntaxErr *TemplateSyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, UnknownType, syntaxErr.Kind)
	assert.Contains(t, err.Error(), opts.Template.Path)
}

func TestLoadIncludeProcessEnv(t *testing.T) {
	t.Setenv("ENVTMPL_TEST_WORKERS", "16")
	opts := writeFiles(t, "##\n# @optional {number} = 1\nENVTMPL_TEST_WORKERS=\n", "ENVTMPL_TEST_WORKERS=4\n")
	opts.UnknownVariables = UnknownRemove

	res, err := Load(opts)
	require.NoError(t, err)
	v, _ := res.Env.Get("ENVTMPL_TEST_WORKERS")
	assert.Equal(t, Number(4), v)

	opts.IncludeProcessEnv = Ref(true)
	res, err = Load(opts)
	require.NoError(t, err)
	v, _ = res.Env.Get("ENVTMPL_TEST_WORKERS")
	assert.Equal(t, Number(16), v)
	assert.Equal(t, 1, res.Env.Len(), "unknown process variables are removed")
}

func TestLoadAssignToProcessEnv(t *testing.T) {
	const (
		fromFile = "ENVTMPL_ASSIGN_FROM_FILE"
		preset   = "ENVTMPL_ASSIGN_PRESET"
		withDef  = "ENVTMPL_ASSIGN_DEFAULT"
	)
	t.Setenv(preset, "preset")
	t.Cleanup(func() {
		os.Unsetenv(fromFile)
		os.Unsetenv(withDef)
	})

	opts := writeFiles(t, "##\n# @optional {string} = fallback\n"+withDef+"=\n",
		fromFile+"=file\n"+preset+"=file\n")
	opts.AssignToProcessEnv = nil

	res, err := Load(opts)
	require.NoError(t, err)
	assert.True(t, Deref(res.Options.AssignToProcessEnv))

	assert.Equal(t, "file", os.Getenv(fromFile))
	assert.Equal(t, "preset", os.Getenv(preset), "an already set variable is not overwritten")
	assert.Equal(t, "fallback", os.Getenv(withDef))

	v, _ := res.Env.Get(preset)
	assert.Equal(t, String("file"), v)
}

func TestLoadResultDecode(t *testing.T) {
	opts := writeFiles(t, loadTemplate, "API_KEY=abc123\nFEATURE__BETA=yes\n")
	opts.Rename.Enabled = Ref(true)

	res, err := Load(opts)
	require.NoError(t, err)

	var cfg struct {
		APIKey string `config:"apiKey"`
		HTTP   struct {
			Port int `config:"port"`
		} `config:"http"`
		Feature struct {
			Beta bool `config:"beta"`
		} `config:"feature"`
	}
	require.NoError(t, res.Decode(&cfg))
	assert.Equal(t, "abc123", cfg.APIKey)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Feature.Beta)
}

func TestParseFile(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing"), ParseOptions{})
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	opts := writeFiles(t, loadTemplate, "")
	tmpl, err := ParseFile(opts.Template.Path, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"API_KEY", "HTTP__PORT", "FEATURE__BETA"}, tmpl.Names())
}

func TestCutEnv(t *testing.T) {
	k, v, ok := cutEnv("A=b=c")
	assert.True(t, ok)
	assert.Equal(t, "A", k)
	assert.Equal(t, "b=c", v)

	_, _, ok = cutEnv("=C:=C:\\")
	assert.False(t, ok)
	_, _, ok = cutEnv("NOEQUALS")
	assert.False(t, ok)
}
