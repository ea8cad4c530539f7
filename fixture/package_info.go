// Package fixture implements declarative composition of test fixtures: units
// of setup and teardown logic that tests attach to themselves by name.
//
// A Fixture is a stateless descriptor of some reusable piece of test
// scaffolding, declared once and shared freely. Binding a Fixture produces an
// Instance, the per-test object that actually performs setup side effects and
// later reverses them. A test case declares its fixtures as struct fields:
//
//	type loginSuite struct {
//		Clock fixture.Fixture
//		DB    fixture.Fixture
//	}
//
// A Driver walks those declarations in order, binds and sets each one up, and
// guarantees that everything successfully set up is torn down exactly once in
// reverse order, even when a later setup or an earlier teardown fails. The
// Install function adapts a Driver to the standard testing package so that a
// test's entire fixture lifecycle is driven by one call.
//
// Fixtures compose: if the Instance returned by a Fixture itself declares
// fixtures (as struct fields or through the Declarer interface), the driver
// runs those on a nested lifecycle scoped to that instance. From the outside
// such a composite fixture is indistinguishable from a primitive one.
package fixture
