package fixture

import (
	"errors"
	"fmt"

	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
)

// Phase identifies where a Driver is in its lifecycle.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseSettingUp
	PhaseReady
	PhaseTearingDown
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not started"
	case PhaseSettingUp:
		return "setting up"
	case PhaseReady:
		return "ready"
	case PhaseTearingDown:
		return "tearing down"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("unknown phase (%d)", int(p))
	}
}

// DriverConfig holds the optional configuration of a Driver. Tests normally
// set these through the WithLogger and WithObserver options rather than
// constructing a DriverConfig directly.
type DriverConfig struct {
	Logger   logging.Logger
	Observer Observer
}

// DriverOption is the interface for optional parameters to NewDriver and
// Install.
type DriverOption = helpers.ConfigOption[DriverConfig]

// WithLogger makes the driver and all of its fixtures write debug output to
// the given logger.
func WithLogger(logger logging.Logger) DriverOption {
	return helpers.ConfigOptionFunc[DriverConfig](func(c *DriverConfig) error {
		c.Logger = logger
		return nil
	})
}

// WithObserver makes the driver report lifecycle events to the given
// observer.
func WithObserver(observer Observer) DriverOption {
	return helpers.ConfigOptionFunc[DriverConfig](func(c *DriverConfig) error {
		c.Observer = observer
		return nil
	})
}

// Driver owns the fixture lifecycle for one owner value, normally one test
// case. It binds and sets up every declared fixture when Begin is called,
// and tears down everything that was set up when End is called.
//
// A Driver is single-threaded: Begin, End, and Instance must all be called
// from the same goroutine, and each driver goes through its lifecycle exactly
// once. The host test framework is expected to call Begin once before the
// test body and End once after it, which is what Install arranges.
type Driver struct {
	owner    any
	registry *Registry
	phase    Phase
	ledger   []*entry
	logger   logging.Logger
	observer Observer
}

// NewDriver collects the fixture declarations of owner (see Collect) and
// returns a driver for them in the not-started phase.
func NewDriver(owner any, options ...DriverOption) (*Driver, error) {
	var config DriverConfig
	if err := helpers.ApplyOptions(&config, options...); err != nil {
		return nil, err
	}
	registry, err := Collect(owner)
	if err != nil {
		return nil, err
	}
	return newDriver(owner, registry, config), nil
}

func newDriver(owner any, registry *Registry, config DriverConfig) *Driver {
	d := &Driver{owner: owner, registry: registry, phase: PhaseNotStarted}
	d.logger = config.Logger
	if d.logger == nil {
		d.logger = logging.NullLogger()
	}
	d.observer = config.Observer
	if d.observer == nil {
		d.observer = NullObserver()
	}
	return d
}

// Phase returns the driver's current lifecycle phase.
func (d *Driver) Phase() Phase { return d.phase }

// Names returns the declared fixture names in declaration order.
func (d *Driver) Names() []string { return d.registry.Names() }

// Begin binds and sets up every declared fixture, in declaration order.
//
// Each fixture is appended to the teardown ledger only after its setup
// returns successfully. If any bind or setup fails, everything already on the
// ledger is torn down in reverse order, and Begin returns a *SetupError
// naming the fixture that failed and wrapping the original error; errors
// during that unwinding are logged but never override the setup error. After
// a failed Begin the driver is in the done phase and cannot be reused.
func (d *Driver) Begin() error {
	if d.phase != PhaseNotStarted {
		return &PhaseError{Op: "begin", Phase: d.phase}
	}
	d.phase = PhaseSettingUp
	d.logger.Printf("setting up %d fixture(s)", d.registry.Len())
	for _, e := range d.registry.entries {
		if err := d.setUpEntry(e); err != nil {
			d.logger.Printf("setup of %q failed, unwinding %d active fixture(s)", e.name, len(d.ledger))
			d.unwind()
			d.phase = PhaseDone
			return &SetupError{Name: e.name, Cause: err}
		}
		d.ledger = append(d.ledger, e)
	}
	d.phase = PhaseReady
	return nil
}

// End tears down every fixture that was successfully set up, in reverse
// declaration order.
//
// Teardown never stops early: a failure in one fixture's teardown is recorded
// and the remaining fixtures are still torn down. If anything failed, End
// returns a *TeardownError listing every (fixture, error) pair. Calling End
// on a driver that is already done is a no-op, so deferring an extra End is
// always safe.
func (d *Driver) End() error {
	switch d.phase {
	case PhaseDone:
		return nil
	case PhaseNotStarted:
		d.phase = PhaseDone
		return nil
	case PhaseTearingDown:
		return &PhaseError{Op: "end", Phase: d.phase}
	}
	d.phase = PhaseTearingDown
	d.logger.Printf("tearing down %d fixture(s)", len(d.ledger))
	var failures []Failure
	for i := len(d.ledger) - 1; i >= 0; i-- {
		e := d.ledger[i]
		if err := d.tearDownEntry(e); err != nil {
			failures = append(failures, Failure{Name: e.name, Cause: err})
		}
	}
	d.ledger = nil
	d.phase = PhaseDone
	if len(failures) > 0 {
		return &TeardownError{Failures: failures}
	}
	return nil
}

// Instance returns the bound instance of the named fixture.
//
// It returns an *UnknownFixtureError if no such name was declared, and an
// *OutOfLifecycleError if the fixture is not currently set up: before Begin,
// after End, or (during setup and teardown) whenever that particular fixture
// is not in its active window. A fixture that is setting up may use fixtures
// declared before it; a fixture that is tearing down may use fixtures that
// have not yet been torn down.
func (d *Driver) Instance(name string) (Instance, error) {
	e := d.registry.find(name)
	if e == nil {
		return nil, &UnknownFixtureError{Name: name}
	}
	if d.phase == PhaseNotStarted || d.phase == PhaseDone || e.state != entryReady {
		return nil, &OutOfLifecycleError{Name: name, Phase: d.phase}
	}
	return e.instance, nil
}

func (d *Driver) setUpEntry(e *entry) error {
	binding := Binding{
		Name:   e.name,
		Owner:  d.owner,
		Logger: logging.LoggerWithPrefix(d.logger, fmt.Sprintf("[%s] ", e.name)),
	}
	instance, err := safeBind(e.fixture, binding)
	if err != nil {
		return err
	}
	nested, err := d.nestedDriverFor(e.name, instance)
	if err != nil {
		return err
	}
	d.observer.SetUpStarted(e.name)
	if nested != nil {
		if err := nested.Begin(); err != nil {
			d.observer.SetUpFinished(e.name, err)
			return err
		}
	}
	err = safeSetUp(instance)
	if err != nil && nested != nil {
		// The composite never became visible, so its children are its own
		// to unwind; a nested Begin that succeeded must be matched here.
		if endErr := nested.End(); endErr != nil {
			d.logger.Printf("cleanup of %q after its setup failed also failed: %s", e.name, endErr)
		}
	}
	d.observer.SetUpFinished(e.name, err)
	if err != nil {
		return err
	}
	e.instance = instance
	e.nested = nested
	e.state = entryReady
	return nil
}

// nestedDriverFor checks a freshly bound instance for declarations of its
// own. If there are any, the instance is a composite and gets a nested driver
// scoped to it, reporting to the same observer under dotted names.
func (d *Driver) nestedDriverFor(name string, instance Instance) (*Driver, error) {
	registry, err := collectInstance(instance)
	if err != nil {
		return nil, err
	}
	if registry.Len() == 0 {
		return nil, nil
	}
	nested := newDriver(instance, registry, DriverConfig{
		Logger:   logging.LoggerWithPrefix(d.logger, fmt.Sprintf("[%s] ", name)),
		Observer: observerWithPrefix(d.observer, name+"."),
	})
	if n, ok := instance.(nestAware); ok {
		n.setNestedDriver(nested)
	}
	return nested, nil
}

func (d *Driver) unwind() {
	for i := len(d.ledger) - 1; i >= 0; i-- {
		e := d.ledger[i]
		if err := d.tearDownEntry(e); err != nil {
			// Unwinding must not mask the setup failure that triggered it.
			d.logger.Printf("teardown of %q while unwinding failed: %s", e.name, err)
		}
	}
	d.ledger = nil
}

func (d *Driver) tearDownEntry(e *entry) error {
	d.observer.TearDownStarted(e.name)
	err := safeTearDown(e.instance)
	if e.nested != nil {
		if nestedErr := e.nested.End(); nestedErr != nil {
			err = errors.Join(err, nestedErr)
		}
	}
	d.observer.TearDownFinished(e.name, err)
	e.state = entryTornDown
	e.instance = nil
	e.nested = nil
	return err
}

// The safe wrappers keep a panicking fixture from taking down the whole
// lifecycle: the panic becomes that fixture's error and the driver's
// unwinding guarantees still apply.

func safeBind(f Fixture, binding Binding) (instance Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r, "bind")
		}
	}()
	return f.Bind(binding)
}

func safeSetUp(instance Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r, "setup")
		}
	}()
	return instance.SetUp()
}

func safeTearDown(instance Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r, "teardown")
		}
	}()
	return instance.TearDown()
}

func panicToError(r interface{}, op string) error {
	if e, ok := r.(error); ok {
		return fmt.Errorf("panic during %s: %w", op, e)
	}
	return fmt.Errorf("panic during %s: %v", op, r)
}
