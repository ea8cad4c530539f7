// Package fixstub provides a fixture that replaces the value of a variable
// for the duration of a test.
//
// This is the simplest way to patch package-level state: point the fixture at
// the variable, give it the replacement value, and the original value is put
// back during teardown no matter how the test ended. When the variable holds
// a function, this doubles as a function-patching fixture.
package fixstub

import (
	"errors"

	"github.com/launchdarkly/go-test-fixtures/fixture"
)

type stubFixture[T any] struct {
	target      *T
	replacement T
}

// Var returns a fixture that sets *target to replacement during setup and
// restores the previous value during teardown. The target variable is not
// touched until setup runs.
func Var[T any](target *T, replacement T) fixture.Fixture {
	return stubFixture[T]{target: target, replacement: replacement}
}

func (f stubFixture[T]) Bind(binding fixture.Binding) (fixture.Instance, error) {
	if f.target == nil {
		return nil, errors.New("target variable must not be nil")
	}
	return &Override[T]{target: f.target, replacement: f.replacement}, nil
}

// Override is the active form of the fixture created by Var. While the test
// is running, it can inspect or change the overridden variable.
type Override[T any] struct {
	target      *T
	replacement T
	original    T
}

func (o *Override[T]) SetUp() error {
	o.original = *o.target
	*o.target = o.replacement
	return nil
}

func (o *Override[T]) TearDown() error {
	*o.target = o.original
	return nil
}

// Set changes the overridden variable to another value. Teardown still
// restores the value the variable had before setup.
func (o *Override[T]) Set(value T) {
	*o.target = value
}

// Value returns the current value of the overridden variable.
func (o *Override[T]) Value() T {
	return *o.target
}

// Original returns the value the variable had before setup.
func (o *Override[T]) Original() T {
	return o.original
}
