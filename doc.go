// Package envtmpl loads .env configuration against an annotated template,
// converts every value to its declared type and reshapes the flat result
// into a nested, typed tree.
//
// # Features
//
//   - Reads .env files with godotenv and a companion .env.template
//   - Required and optional variables, with typed defaults
//   - Ordered candidate types per variable (number|boolean, string[], ...)
//   - Renaming into nested camelCase or snake_case paths
//   - Secret masking for sensitive values in pretty output
//   - Expression checks on converted values (expr-lang/expr)
//   - Options layered from code, environment and command line
//
// # Template Syntax
//
// A variable is annotated by a comment block opened with a line reading
// exactly "##". The block ends at the first line that is not a comment and
// applies to the next NAME= line:
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
//	##
//	# @optional {string[]} = web,api
//	TAGS=
//
// Directives:
//   - `@required {T|T} [path]` - Must be present and non-empty; optional output path
//   - `@optional {T|T} [path=default]` - May be absent; default converted at parse time
//   - `@secret` - Masks the value in PrettyString
//   - `@assert EXPR` - Boolean expression over `value`, checked after conversion
//
// Other comment lines of the block form the variable description.
//
// # Supported Types
//
//   - Basic types: string, number, boolean, Date
//   - Collections: string[], number[], boolean[], Date[] (comma-separated)
//   - Structured: json (object or array, key order preserved)
//   - Specialized: duration, decimal, uuid, url, quantity (Kubernetes resource quantities)
//   - Custom types added with RegisterType
//
// # Quick Start
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		"github.com/vivaneiona/envtmpl"
//	)
//
//	func main() {
//		res, err := envtmpl.Load(envtmpl.Options{
//			ComposeOptions: envtmpl.ComposeOptions{
//				Rename: envtmpl.RenameOptions{CaseStyle: envtmpl.CamelCase},
//			},
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Println(res.PrettyString()) // secrets are masked
//	}
//
// # Options
//
// Options are resolved once, before any file is read. A field set in code
// wins over DOTENV_CONFIG__* variables, which win over dotenv_config__*
// arguments, which win over the defaults:
//
//	DOTENV_CONFIG__RENAME__CASE_STYLE=snake_case ./app
//	./app dotenv_config__path=/etc/app.env dotenv_config__template__path=/etc/app.env.template
//
// # API Reference
//
//	func Parse(src string, opts ParseOptions) (*Template, error)                        // Parse template text
//	func Convert(raw string, types ...TypeTag) (Value, error)                            // Convert one value
//	func Compose(raw map[string]string, t *Template, o ComposeOptions) (*Result, error) // Validate, convert, rename
//	func Load(opts Options) (*LoadResult, error)                                        // Files, options and process env
//	func Decode(env *Object, v any) error                                               // Map Env onto a struct
//
// # Error Handling
//
// Errors are typed and can be inspected with errors.As:
//   - *TemplateSyntaxError for malformed templates, with the line number
//   - *ConversionError when no candidate type accepts a value
//   - *MissingRequiredError listing every absent required variable
//   - *UnknownVariableError listing every undeclared variable
//   - *AssertionError when an @assert expression does not hold
//
// Conversion errors name the variable and the types tried, never the value.
package envtmpl
