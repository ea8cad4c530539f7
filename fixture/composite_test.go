package fixture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compositeFixture is a Fixture whose instances declare children of their
// own, through the Declarer interface.
type compositeFixture struct {
	log         *lifecycleLog
	children    []Declaration
	setUpErr    error
	tearDownErr error
	useChild    string
}

func (f *compositeFixture) Bind(binding Binding) (Instance, error) {
	return &compositeInstance{owner: f, name: binding.Name}, nil
}

type compositeInstance struct {
	Nest
	owner *compositeFixture
	name  string

	childSeen Instance
	childErr  error
}

func (c *compositeInstance) Declarations() []Declaration { return c.owner.children }

func (c *compositeInstance) SetUp() error {
	c.owner.log.add("setup %s", c.name)
	if c.owner.useChild != "" {
		c.childSeen, c.childErr = c.Child(c.owner.useChild)
	}
	return c.owner.setUpErr
}

func (c *compositeInstance) TearDown() error {
	c.owner.log.add("teardown %s", c.name)
	return c.owner.tearDownErr
}

type outerWithComposite struct {
	A    Fixture
	Comp Fixture
	B    Fixture
}

func makeComposite(log *lifecycleLog) (*compositeFixture, *fakeFixture, *fakeFixture) {
	x, y := &fakeFixture{log: log}, &fakeFixture{log: log}
	comp := &compositeFixture{
		log: log,
		children: []Declaration{
			{Name: "X", Fixture: x},
			{Name: "Y", Fixture: y},
		},
	}
	return comp, x, y
}

func TestCompositeChildrenAreScopedInsideTheComposite(t *testing.T) {
	var log lifecycleLog
	comp, _, _ := makeComposite(&log)
	owner := &outerWithComposite{
		A:    &fakeFixture{log: &log},
		Comp: comp,
		B:    &fakeFixture{log: &log},
	}

	d, err := NewDriver(owner)
	require.NoError(t, err)
	require.NoError(t, d.Begin())
	require.NoError(t, d.End())

	assert.Equal(t, []string{
		"setup A",
		"setup X", "setup Y", "setup Comp",
		"setup B",
		"teardown B",
		"teardown Comp", "teardown Y", "teardown X",
		"teardown A",
	}, log.events)

	// the children never show up in the outer lifecycle's namespace
	assert.Equal(t, []string{"A", "Comp", "B"}, d.Names())
}

func TestCompositeOwnSetupFailureUnwindsItsChildren(t *testing.T) {
	var log lifecycleLog
	comp, x, y := makeComposite(&log)
	boom := errors.New("composite broke")
	comp.setUpErr = boom
	owner := &outerWithComposite{
		A:    &fakeFixture{log: &log},
		Comp: comp,
		B:    &fakeFixture{log: &log},
	}

	d, err := NewDriver(owner)
	require.NoError(t, err)

	err = d.Begin()
	var se *SetupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Comp", se.Name)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{
		"setup A",
		"setup X", "setup Y", "setup Comp",
		"teardown Y", "teardown X",
		"teardown A",
	}, log.events)
	assert.Equal(t, 1, x.lastInstance.tearDownCount)
	assert.Equal(t, 1, y.lastInstance.tearDownCount)
}

func TestCompositeChildSetupFailureFailsTheComposite(t *testing.T) {
	var log lifecycleLog
	comp, x, y := makeComposite(&log)
	boom := errors.New("child broke")
	y.setUpErr = boom
	owner := &outerWithComposite{
		A:    &fakeFixture{log: &log},
		Comp: comp,
		B:    &fakeFixture{log: &log},
	}

	d, err := NewDriver(owner)
	require.NoError(t, err)

	err = d.Begin()
	var outer *SetupError
	require.ErrorAs(t, err, &outer)
	assert.Equal(t, "Comp", outer.Name)

	// the cause is the child's own setup error
	var inner *SetupError
	require.ErrorAs(t, outer.Cause, &inner)
	assert.Equal(t, "Y", inner.Name)
	assert.ErrorIs(t, err, boom)

	// the composite's own setup never ran, and X was unwound
	assert.Equal(t, []string{
		"setup A",
		"setup X", "setup Y",
		"teardown X",
		"teardown A",
	}, log.events)
	assert.Equal(t, 1, x.lastInstance.tearDownCount)
}

func TestCompositeCanUseItsChildrenDuringSetup(t *testing.T) {
	var log lifecycleLog
	comp, x, _ := makeComposite(&log)
	comp.useChild = "X"
	owner := &outerWithComposite{A: &fakeFixture{log: &log}, Comp: comp, B: &fakeFixture{log: &log}}

	d, err := NewDriver(owner)
	require.NoError(t, err)
	require.NoError(t, d.Begin())
	defer func() { _ = d.End() }()

	inst, err := d.Instance("Comp")
	require.NoError(t, err)
	ci := inst.(*compositeInstance)
	assert.NoError(t, ci.childErr)
	assert.Same(t, x.lastInstance, ci.childSeen.(*fakeInstance))

	// the nested lifecycle is reachable through the Nest embed
	require.NotNil(t, ci.Lifecycle())
	assert.Equal(t, []string{"X", "Y"}, ci.Lifecycle().Names())

	_, err = ci.Child("Nope")
	var ue *UnknownFixtureError
	assert.ErrorAs(t, err, &ue)
}

func TestCompositeTearDownFailuresCombine(t *testing.T) {
	var log lifecycleLog
	comp, x, _ := makeComposite(&log)
	comp.tearDownErr = errors.New("own teardown failed")
	x.tearDownErr = errors.New("child teardown failed")
	owner := &outerWithComposite{A: &fakeFixture{log: &log}, Comp: comp, B: &fakeFixture{log: &log}}

	d, err := NewDriver(owner)
	require.NoError(t, err)
	require.NoError(t, d.Begin())

	err = d.End()
	var te *TeardownError
	require.ErrorAs(t, err, &te)
	require.Len(t, te.Failures, 1)
	assert.Equal(t, "Comp", te.Failures[0].Name)
	assert.Contains(t, te.Failures[0].Cause.Error(), "own teardown failed")
	assert.Contains(t, te.Failures[0].Cause.Error(), "child teardown failed")

	// everything still came down, including the fixtures around the composite
	assert.Equal(t, "teardown A", log.events[len(log.events)-1])
}

// fieldComposite declares its children as struct fields instead of through
// Declarer, which works the same way.
type fieldComposite struct {
	log *lifecycleLog
}

func (f *fieldComposite) Bind(binding Binding) (Instance, error) {
	return &fieldCompositeInstance{
		First:  &fakeFixture{log: f.log},
		Second: &fakeFixture{log: f.log},
		log:    f.log,
		name:   binding.Name,
	}, nil
}

type fieldCompositeInstance struct {
	Nest
	First  Fixture
	Second Fixture

	log  *lifecycleLog
	name string
}

func (f *fieldCompositeInstance) SetUp() error {
	f.log.add("setup %s", f.name)
	return nil
}

func (f *fieldCompositeInstance) TearDown() error {
	f.log.add("teardown %s", f.name)
	return nil
}

func TestCompositeWithFieldDeclaredChildren(t *testing.T) {
	var log lifecycleLog
	type owner struct {
		Comp Fixture
	}

	d, err := NewDriver(&owner{Comp: &fieldComposite{log: &log}})
	require.NoError(t, err)
	require.NoError(t, d.Begin())
	require.NoError(t, d.End())

	assert.Equal(t, []string{
		"setup First", "setup Second", "setup Comp",
		"teardown Comp", "teardown Second", "teardown First",
	}, log.events)
}

func TestCompositeNesting(t *testing.T) {
	// composites can nest: a composite child that is itself a composite
	var log lifecycleLog
	innerComp, _, _ := makeComposite(&log)
	outerComp := &compositeFixture{
		log: &log,
		children: []Declaration{
			{Name: "Inner", Fixture: innerComp},
		},
	}
	type owner struct {
		Outer Fixture
	}

	d, err := NewDriver(&owner{Outer: outerComp})
	require.NoError(t, err)
	require.NoError(t, d.Begin())
	require.NoError(t, d.End())

	assert.Equal(t, []string{
		"setup X", "setup Y", "setup Inner", "setup Outer",
		"teardown Outer", "teardown Inner", "teardown Y", "teardown X",
	}, log.events)
}
