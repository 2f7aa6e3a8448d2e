// Package reflectx recovers names for functions handed to the tool package.
package reflectx

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

var anonymousName = regexp.MustCompile(`^(func)?\d+$`)

// IsFunction reports whether fn holds a non-nil function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	val := reflect.ValueOf(fn)
	return val.Kind() == reflect.Func && !val.IsNil()
}

// FunctionName returns the declared name of fn with package path and receiver
// stripped, so both save and (*Saver).Save-fm come out as plain identifiers.
// Anonymous functions and non-functions yield the empty string; the name of a
// named func type is never used because it says nothing about the implementation.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return ""
	}

	name := rf.Name()
	if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
		name = name[lastDot+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if anonymousName.MatchString(name) {
		return ""
	}
	return name
}
