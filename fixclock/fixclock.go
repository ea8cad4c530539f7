// Package fixclock provides a fixture that swaps a clock function variable
// for a manually controlled clock.
//
// Code under test that reads the time through a package-level variable such
// as "var now = time.Now" can be frozen at a known instant and stepped
// forward deliberately, so that time-dependent behavior becomes testable.
// The patching is done by a nested fixstub fixture, so the real function is
// restored during teardown like any other override.
package fixclock

import (
	"errors"
	"sync"
	"time"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/fixstub"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/opt"
)

// Option is the interface for optional configuration parameters of Freeze.
type Option helpers.ConfigOption[Manual]

type optionAt struct{ start time.Time }

func (o optionAt) Configure(m *Manual) error {
	m.start = opt.Some(o.start)
	return nil
}

// At makes the clock start at the given instant instead of the real time at
// the moment of setup.
func At(start time.Time) Option { return optionAt{start} }

type optionStep struct{ step time.Duration }

func (o optionStep) Configure(m *Manual) error {
	m.step = o.step
	return nil
}

// Step makes the clock advance itself by the given amount every time it is
// read, so a sequence of reads yields strictly increasing times.
func Step(step time.Duration) Option { return optionStep{step} }

type clockFixture struct {
	target  *func() time.Time
	options []Option
}

// Freeze returns a fixture that replaces the function variable at target with
// a manual clock for the duration of the test. The clock starts at the real
// current time unless the At option says otherwise, and stands still unless
// advanced by the Step option or by the Manual instance's methods.
func Freeze(target *func() time.Time, options ...Option) fixture.Fixture {
	return clockFixture{target: target, options: options}
}

func (f clockFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	if f.target == nil {
		return nil, errors.New("target function variable must not be nil")
	}
	m := &Manual{}
	if err := helpers.ApplyOptions(m, f.options...); err != nil {
		return nil, err
	}
	m.patch = fixstub.Var(f.target, m.Now)
	return m, nil
}

// Manual is a manually controlled clock. While its fixture is active, the
// patched function variable reads from it. All methods are safe to call from
// any goroutine.
type Manual struct {
	fixture.Nest
	patch   fixture.Fixture
	lock    sync.Mutex
	start   opt.Maybe[time.Time]
	step    time.Duration
	current time.Time
}

func (m *Manual) Declarations() []fixture.Declaration {
	return []fixture.Declaration{{Name: "patch", Fixture: m.patch}}
}

func (m *Manual) SetUp() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.current = m.start.OrElse(time.Now())
	return nil
}

func (m *Manual) TearDown() error {
	return nil // the nested patch fixture restores the real function
}

// Now returns the clock's current instant, advancing it afterward if a Step
// was configured.
func (m *Manual) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	ret := m.current
	m.current = m.current.Add(m.step)
	return ret
}

// Set moves the clock to an exact instant.
func (m *Manual) Set(instant time.Time) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.current = instant
}

// Advance moves the clock forward (or, with a negative duration, backward).
func (m *Manual) Advance(d time.Duration) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.current = m.current.Add(d)
}
