package fixture

type nestAware interface {
	setNestedDriver(d *Driver)
}

// Nest is embedded in the instance type of a composite fixture to give it
// access to the fixtures declared on that instance. The driver injects the
// nested lifecycle after binding the instance and before setting up any of
// its children, so the embedding instance's SetUp and TearDown can rely on
// it being present.
type Nest struct {
	nested *Driver
}

func (n *Nest) setNestedDriver(d *Driver) { n.nested = d }

// Lifecycle returns the nested driver for this composite's children, or nil
// if the instance declared no fixtures.
func (n *Nest) Lifecycle() *Driver { return n.nested }

// Child returns the bound instance of a fixture declared on this composite,
// with the same lifecycle rules as Driver.Instance.
func (n *Nest) Child(name string) (Instance, error) {
	if n.nested == nil {
		return nil, &UnknownFixtureError{Name: name}
	}
	return n.nested.Instance(name)
}
