// Package partial implements the field-by-field update rule shared by the
// account and event services: a supplied value replaces the stored one only
// when it is non-zero.
package partial

// Apply returns *v when v is non-nil and not the zero value of T, and
// current otherwise. An explicit "" or 0 is therefore indistinguishable
// from an omitted field.
func Apply[T comparable](current T, v *T) T {
	var zero T
	if v == nil || *v == zero {
		return current
	}
	return *v
}
