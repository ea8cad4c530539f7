package fixture

import (
	"fmt"

	"github.com/launchdarkly/go-test-fixtures/helpers"

	"github.com/stretchr/testify/require"
)

// TB is the subset of testing.TB that Install needs. It is satisfied by
// *testing.T and *testing.B.
type TB interface {
	helpers.TestContext
	Cleanup(func())
}

// Install runs the whole fixture lifecycle of owner under a test: it builds a
// driver, registers teardown with tb.Cleanup, and sets everything up,
// failing the test immediately if a declaration or setup error occurs. A
// teardown failure after the test is reported through tb.Errorf so it fails
// the test without hiding the test's own result.
//
// This gives each test exactly one Begin and one End in all cases, including
// failed setup, which is the contract the driver requires of its host.
func Install(tb TB, owner any, options ...DriverOption) *Driver {
	if h, ok := tb.(interface{ Helper() }); ok {
		h.Helper()
	}
	d, err := NewDriver(owner, options...)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		if err := d.End(); err != nil {
			tb.Errorf("fixture teardown failed: %s", err)
		}
	})
	require.NoError(tb, d.Begin())
	return d
}

// Get returns the bound instance of the named fixture with the expected
// type, failing the test if the name is unknown, the lifecycle is not in the
// right phase, or the instance has a different type.
func Get[T Instance](t helpers.TestContext, d *Driver, name string) T {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ret, err := Lookup[T](d, name)
	if err != nil {
		t.Errorf("%s", err)
		t.FailNow()
	}
	return ret
}

// Lookup is the error-returning equivalent of Get, for use outside of tests.
func Lookup[T Instance](d *Driver, name string) (T, error) {
	var empty T
	instance, err := d.Instance(name)
	if err != nil {
		return empty, err
	}
	typed, ok := instance.(T)
	if !ok {
		return empty, &DeclarationError{
			Owner:  d.registry.ownerType,
			Name:   name,
			Reason: fmt.Sprintf("bound instance has type %T, not %T", instance, empty),
		}
	}
	return typed, nil
}
