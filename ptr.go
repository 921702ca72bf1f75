package envtmpl

// Ref returns a reference of the given value. It is handy for the
// tri-state option fields:
//
//	opts.Rename.NestingDelimiter = envtmpl.Ref("_")
func Ref[T any](t T) *T {
	return &t
}

// Deref returns either the zero value for type T or the
// dereferenced value of t.
func Deref[T any](t *T) T {
	var zero T
	if t == nil {
		return zero
	}
	return *t
}
