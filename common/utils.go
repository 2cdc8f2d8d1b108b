package common

// Coalesce picks the first non-zero value, so an unset tunable (a zero fall speed, a zero transform
// scale) falls through to its default. All zero values yield the zero value.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
