package fixture

import (
	"fmt"
)

// lifecycleLog records what happened to the test doubles below, in order, so
// tests can assert on exact setup/teardown sequences.
type lifecycleLog struct {
	events []string
}

func (l *lifecycleLog) add(format string, args ...interface{}) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

// fakeFixture is a configurable Fixture for driver tests. The zero value
// binds successfully and its instances succeed at everything.
type fakeFixture struct {
	log          *lifecycleLog
	bindErr      error
	setUpErr     error
	tearDownErr  error
	panicInSetUp interface{}
	onSetUp      func(name string) error
	onTearDown   func(name string) error

	// lastInstance lets a test inspect the most recently bound instance.
	lastInstance *fakeInstance
}

func (f *fakeFixture) Bind(binding Binding) (Instance, error) {
	if f.bindErr != nil {
		return nil, f.bindErr
	}
	inst := &fakeInstance{owner: f, name: binding.Name}
	f.lastInstance = inst
	return inst, nil
}

type fakeInstance struct {
	owner         *fakeFixture
	name          string
	setUpCount    int
	tearDownCount int
}

func (i *fakeInstance) SetUp() error {
	i.setUpCount++
	if i.owner.log != nil {
		i.owner.log.add("setup %s", i.name)
	}
	if i.owner.panicInSetUp != nil {
		panic(i.owner.panicInSetUp)
	}
	if i.owner.onSetUp != nil {
		return i.owner.onSetUp(i.name)
	}
	return i.owner.setUpErr
}

func (i *fakeInstance) TearDown() error {
	i.tearDownCount++
	if i.owner.log != nil {
		i.owner.log.add("teardown %s", i.name)
	}
	if i.owner.onTearDown != nil {
		return i.owner.onTearDown(i.name)
	}
	return i.owner.tearDownErr
}
