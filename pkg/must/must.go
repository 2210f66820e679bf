// Package must contains simple functions that panic on errors. They should
// only be used in tests and rare places where errors are considered
// impossible.
package must

// OK panics if the error is not nil.
func OK(err error) {
	if err != nil {
		panic(err)
	}
}

// OK1 returns the first argument, and panics if the error is not nil.
func OK1[T any](v T, err error) T {
	OK(err)
	return v
}
