package fixture

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var observerProgressColor = color.New(color.FgYellow) //nolint:gochecknoglobals
var observerFailedColor = color.New(color.FgRed)      //nolint:gochecknoglobals
var observerOKColor = color.New(color.FgGreen)        //nolint:gochecknoglobals

// Observer receives lifecycle events from a Driver. Observers exist for
// diagnostics: they see what happened and when, but cannot influence the
// lifecycle. Composite fixtures report their children's events to the same
// observer under dotted names such as "mail.sender".
type Observer interface {
	SetUpStarted(name string)
	SetUpFinished(name string, err error)
	TearDownStarted(name string)
	TearDownFinished(name string, err error)
}

type nullObserver struct{}

func (n nullObserver) SetUpStarted(string)            {}
func (n nullObserver) SetUpFinished(string, error)    {}
func (n nullObserver) TearDownStarted(string)         {}
func (n nullObserver) TearDownFinished(string, error) {}

// NullObserver returns an Observer that ignores all events. It is the default
// for drivers that are not given an observer.
func NullObserver() Observer { return nullObserver{} }

type multiObserver []Observer

// MultiObserver returns an Observer that forwards every event to each of the
// given observers in order.
func MultiObserver(observers ...Observer) Observer { return multiObserver(observers) }

func (m multiObserver) SetUpStarted(name string) {
	for _, o := range m {
		o.SetUpStarted(name)
	}
}

func (m multiObserver) SetUpFinished(name string, err error) {
	for _, o := range m {
		o.SetUpFinished(name, err)
	}
}

func (m multiObserver) TearDownStarted(name string) {
	for _, o := range m {
		o.TearDownStarted(name)
	}
}

func (m multiObserver) TearDownFinished(name string, err error) {
	for _, o := range m {
		o.TearDownFinished(name, err)
	}
}

// ConsoleObserver is an Observer that prints lifecycle progress in the style
// of a test runner's console output.
type ConsoleObserver struct {
	// Output is where the text is written; os.Stdout if nil.
	Output io.Writer

	// DisableColor turns off the colored output, for terminals or logs that
	// do not handle ANSI escapes.
	DisableColor bool

	// Verbose makes successful events print as well as failures.
	Verbose bool
}

func (c ConsoleObserver) SetUpStarted(name string) {
	if c.Verbose {
		c.printf(observerProgressColor, "  setting up %s", name)
	}
}

func (c ConsoleObserver) SetUpFinished(name string, err error) {
	if err != nil {
		c.printf(observerFailedColor, "  SETUP FAILED: %s: %s", name, err)
	} else if c.Verbose {
		c.printf(observerOKColor, "  ready: %s", name)
	}
}

func (c ConsoleObserver) TearDownStarted(name string) {
	if c.Verbose {
		c.printf(observerProgressColor, "  tearing down %s", name)
	}
}

func (c ConsoleObserver) TearDownFinished(name string, err error) {
	if err != nil {
		c.printf(observerFailedColor, "  TEARDOWN FAILED: %s: %s", name, err)
	} else if c.Verbose {
		c.printf(observerOKColor, "  torn down: %s", name)
	}
}

func (c ConsoleObserver) printf(lineColor *color.Color, format string, args ...interface{}) {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	if c.DisableColor {
		_, _ = fmt.Fprintf(out, format+"\n", args...)
		return
	}
	_, _ = lineColor.Fprintf(out, format+"\n", args...)
}

// observerWithPrefix wraps an Observer so that all names are reported with a
// prefix, which is how nested lifecycles show up under their composite.
func observerWithPrefix(base Observer, prefix string) Observer {
	if _, isNull := base.(nullObserver); isNull {
		return base
	}
	return prefixObserver{base: base, prefix: prefix}
}

type prefixObserver struct {
	base   Observer
	prefix string
}

func (p prefixObserver) SetUpStarted(name string) {
	p.base.SetUpStarted(p.prefix + name)
}

func (p prefixObserver) SetUpFinished(name string, err error) {
	p.base.SetUpFinished(p.prefix+name, err)
}

func (p prefixObserver) TearDownStarted(name string) {
	p.base.TearDownStarted(p.prefix + name)
}

func (p prefixObserver) TearDownFinished(name string, err error) {
	p.base.TearDownFinished(p.prefix+name, err)
}
