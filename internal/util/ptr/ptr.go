// Package ptr provides helpers for the pointer-heavy cloud SDK models.
package ptr

// To returns a pointer to v.
func To[T any](v T) *T { return &v }

// Deref returns the value p points to, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Bool returns a pointer to the given bool value.
func Bool(b bool) *bool { return &b }
