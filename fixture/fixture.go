package fixture

import (
	"github.com/launchdarkly/go-test-fixtures/logging"
)

// Fixture is a descriptor for a reusable unit of test setup and teardown.
//
// A Fixture value is stateless configuration: it holds whatever parameters
// were given when it was constructed, and nothing about any particular test.
// The same Fixture can be declared on any number of test cases at once. All
// per-test state lives in the Instance that Bind returns.
type Fixture interface {
	// Bind allocates the per-test state for this fixture and returns it.
	//
	// Bind must not touch any shared state: no I/O, no writes to process
	// globals. Anything with side effects belongs in Instance.SetUp, so
	// that the driver's teardown guarantees can hold.
	Bind(binding Binding) (Instance, error)
}

// FixtureFunc is a function adapter for Fixture, in the same way that
// http.HandlerFunc adapts a function to http.Handler.
type FixtureFunc func(binding Binding) (Instance, error)

func (f FixtureFunc) Bind(binding Binding) (Instance, error) { return f(binding) }

// Instance is the bound, per-test realization of a Fixture.
//
// Instances are never shared between tests: the driver binds a fresh one for
// each lifecycle and drops its reference when the lifecycle ends.
type Instance interface {
	// SetUp performs the fixture's side effects: starting a server, writing
	// an environment variable, connecting to a database. If SetUp returns an
	// error the driver treats the fixture as not set up and will never call
	// TearDown on it, so SetUp must undo its own partial work before
	// returning an error.
	SetUp() error

	// TearDown reverses SetUp. It is called exactly once, and only after
	// SetUp succeeded.
	TearDown() error
}

// Binding is what a Driver passes to Fixture.Bind: the context in which the
// fixture was declared.
type Binding struct {
	// Name is the name under which the fixture was declared on its owner.
	Name string

	// Owner is the value the fixture was declared on, usually a pointer to
	// the test case struct. Most fixtures ignore it.
	Owner any

	// Logger receives debug output for this fixture's lifecycle. It is never
	// nil; the driver tags it with the fixture's name.
	Logger logging.Logger
}

// Declaration is one named fixture in an ordered declaration list.
type Declaration struct {
	Name    string
	Fixture Fixture
}

// Declarer is an alternative declaration surface to struct fields. If an
// owner value implements Declarer, the returned declarations are appended,
// in order, after any field declarations. Composite fixtures use this to
// declare children without exposing them as exported fields.
type Declarer interface {
	Declarations() []Declaration
}
