// Package stdx holds small helpers that the standard library leaves out.
package stdx

// Must0 panics when err is not nil.
// Use it for setup that cannot fail unless the program itself is wrong.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v, or panics when err is not nil.
//
// It is meant for package-level initialisation of values whose constructors
// only fail on programmer error, for example:
//
//	var searchTool = stdx.Must1(tool.New(search, tool.Name("search")))
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
