// Package tt supports table-driven tests with little boilerplate.
package tt

import (
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// Table represents a test table.
type Table []*Case

// Case represents a test case: arguments to a function under test and the
// expected return values. Construct with Args(...).Rets(...).
type Case struct {
	args []any
	rets []any
}

// Args returns a new Case with the given arguments.
func Args(args ...any) *Case {
	return &Case{args: args}
}

// Rets sets the expected return values and returns the receiver. An expected
// value may implement [Matcher], in which case its Match method decides the
// outcome; otherwise values are compared with reflect.DeepEqual.
func (c *Case) Rets(rets ...any) *Case {
	c.rets = rets
	return c
}

// T is the interface for accessing testing.T.
type T interface {
	Helper()
	Errorf(format string, args ...any)
}

// Test tests fn against the test cases in the table. The name is used in
// failure messages.
func Test(t T, name string, fn any, tests Table) {
	t.Helper()
	for _, test := range tests {
		rets := call(fn, test.args)
		if !match(test.rets, rets) {
			t.Errorf("%s(%s) -> %s, want %s\ndiff: %s",
				name, sprintList(test.args), sprintList(rets),
				sprintList(test.rets), diff(test.rets, rets))
		}
	}
}

// Matcher wraps the Match method.
type Matcher interface {
	// Match reports whether an actual return value is considered a match.
	Match(actual any) bool
}

// Any is a Matcher that matches any value.
var Any Matcher = anyMatcher{}

type anyMatcher struct{}

func (anyMatcher) Match(any) bool { return true }

func match(want, got []any) bool {
	if len(want) != len(got) {
		return false
	}
	for i, w := range want {
		if !matchOne(w, got[i]) {
			return false
		}
	}
	return true
}

func matchOne(w, g any) bool {
	if m, ok := w.(Matcher); ok {
		return m.Match(g)
	}
	return reflect.DeepEqual(w, g)
}

func diff(want, got []any) string {
	defer func() { recover() }()
	return cmp.Diff(want, got)
}

func call(fn any, args []any) []any {
	argsReflect := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			// reflect.ValueOf(nil) is an invalid Value; fabricate a zero
			// value from the function signature instead.
			argsReflect[i] = reflect.New(reflect.TypeOf(fn).In(i)).Elem()
		} else {
			argsReflect[i] = reflect.ValueOf(arg)
		}
	}
	rets := reflect.ValueOf(fn).Call(argsReflect)
	retsInterface := make([]any, len(rets))
	for i, ret := range rets {
		retsInterface[i] = ret.Interface()
	}
	return retsInterface
}

func sprintList(values []any) string {
	s := ""
	for i, value := range values {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(value)
	}
	return s
}
