package envtmpl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// mask returns a masked version of the secret string.
// It keeps the first 3 characters visible and replaces the rest with asterisks.
// For strings with 3 or fewer characters, all characters are replaced with asterisks.
//
// Examples:
//   - mask("") returns ""
//   - mask("a") returns "*"
//   - mask("abc") returns "***"
//   - mask("secret123") returns "sec******"
func mask(secret string) string {
	const keep = 3
	n := len(secret)
	if n <= keep {
		return strings.Repeat("*", n)
	}
	return secret[:keep] + strings.Repeat("*", n-keep)
}

// maskValue masks a secret value. Strings keep their first characters,
// arrays are masked element by element, anything else becomes "***".
func maskValue(v Value) Value {
	switch v.Kind() {
	case KindNull:
		return v
	case KindString:
		s, _ := v.AsString()
		return String(mask(s))
	case KindArray:
		items, _ := v.AsArray()
		masked := make([]Value, len(items))
		for i, item := range items {
			if s, ok := item.AsString(); ok {
				masked[i] = String(mask(s))
			} else {
				masked[i] = String("***")
			}
		}
		return Array(masked...)
	default:
		return String("***")
	}
}

// maskURLPassword masks the password in a URL for safe logging
func maskURLPassword(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			// Create a copy and mask the password
			masked := *u
			masked.User = url.UserPassword(u.User.Username(), "***")
			return masked.String()
		}
	}
	return u.String()
}

// safeValue recursively replaces URL values by their password-masked text.
func safeValue(v Value) Value {
	switch v.Kind() {
	case KindURL:
		u, _ := v.AsURL()
		return String(maskURLPassword(u))
	case KindArray:
		items, _ := v.AsArray()
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = safeValue(item)
		}
		return Array(out...)
	case KindObject:
		obj, _ := v.AsObject()
		out := NewObject()
		obj.Range(func(key string, item Value) bool {
			out.Set(key, safeValue(item))
			return true
		})
		return ObjectValue(out)
	default:
		return v
	}
}

func prettyJSON(obj *Object, secretPaths [][]string) string {
	safe, _ := safeValue(ObjectValue(obj)).AsObject()
	for _, path := range secretPaths {
		if v, ok := safe.Lookup(path...); ok {
			safe.SetPath(path, maskValue(v))
		}
	}
	b, err := json.MarshalIndent(safe, "", "  ")
	if err != nil {
		return fmt.Sprintf("error pretty-printing env: %v", err)
	}
	return string(b)
}

// PrettyString returns Env as indented JSON, safe for logging: values of
// @secret variables are masked and URL passwords are replaced by "***".
//
// Example:
//
//	res, err := envtmpl.Compose(raw, tmpl, envtmpl.ComposeOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	slog.Info("config loaded", "env", res.PrettyString())
func (r *Result) PrettyString() string {
	return prettyJSON(r.Env, r.secretPaths)
}

// PrettyFlatString is PrettyString for the flat ConvertedEnv.
func (r *Result) PrettyFlatString() string {
	paths := make([][]string, len(r.secretKeys))
	for i, key := range r.secretKeys {
		paths[i] = []string{key}
	}
	return prettyJSON(r.ConvertedEnv, paths)
}
