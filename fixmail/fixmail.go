// Package fixmail provides a fixture that captures outgoing mail instead of
// sending it.
//
// Code under test that sends mail through a package-level Sender variable can
// be pointed at an in-memory inbox for the duration of a test. The test can
// then inspect everything that was "sent", or wait for a message to arrive
// from another goroutine. The rerouting is done by a nested fixstub fixture,
// so the real sender is restored during teardown.
package fixmail

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/fixstub"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
	"github.com/launchdarkly/go-test-fixtures/opt"
)

// Somewhat arbitrary buffer size for the channel that we use as an arrival
// queue. If the channel is full, delivery will *not* block; the message is
// still recorded but cannot be awaited.
const defaultArrivalQueueSize = 100

// Message is one piece of captured mail.
type Message struct {
	From    string
	Subject string
	Body    string
	To      []string
}

// Sender is the function type through which code under test sends mail.
type Sender func(Message) error

// Option is the interface for optional configuration parameters of Capture.
type Option helpers.ConfigOption[Inbox]

type optionBuffer struct{ size int }

func (o optionBuffer) Configure(in *Inbox) error {
	if o.size < 1 {
		return fmt.Errorf("arrival queue size must be positive, not %d", o.size)
	}
	in.queueSize = o.size
	return nil
}

// Buffer sets the capacity of the arrival queue used by AwaitMessage and
// RequireMessage. Messages beyond the capacity are still recorded, but only
// show up in Messages.
func Buffer(size int) Option { return optionBuffer{size} }

type captureFixture struct {
	target  *Sender
	options []Option
}

// Capture returns a fixture that replaces the Sender variable at target with
// one that delivers into an Inbox, for the duration of the test.
func Capture(target *Sender, options ...Option) fixture.Fixture {
	return captureFixture{target: target, options: options}
}

func (f captureFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	if f.target == nil {
		return nil, errors.New("target sender variable must not be nil")
	}
	in := &Inbox{queueSize: defaultArrivalQueueSize, logger: binding.Logger}
	if err := helpers.ApplyOptions(in, f.options...); err != nil {
		return nil, err
	}
	in.arrivals = make(chan Message, in.queueSize)
	in.patch = fixstub.Var(f.target, in.deliver)
	return in, nil
}

// Inbox accumulates the messages captured while the fixture is active. All
// methods are safe to call from any goroutine.
type Inbox struct {
	fixture.Nest
	patch     fixture.Fixture
	queueSize int
	logger    logging.Logger
	lock      sync.Mutex
	received  []Message
	arrivals  chan Message
}

func (in *Inbox) Declarations() []fixture.Declaration {
	return []fixture.Declaration{{Name: "patch", Fixture: in.patch}}
}

func (in *Inbox) SetUp() error {
	return nil // the nested patch fixture does the rerouting
}

func (in *Inbox) TearDown() error {
	in.logger.Printf("captured %d message(s)", in.Count())
	return nil
}

func (in *Inbox) deliver(message Message) error {
	in.lock.Lock()
	in.received = append(in.received, message)
	in.lock.Unlock()

	if !helpers.NonBlockingSend(in.arrivals, message) {
		in.logger.Printf("arrival queue is full; %q can no longer be awaited", message.Subject)
	}
	return nil
}

// Messages returns a copy of every message captured so far, in order of
// delivery, regardless of whether it was consumed by AwaitMessage.
func (in *Inbox) Messages() []Message {
	in.lock.Lock()
	defer in.lock.Unlock()
	return helpers.CopyOf(in.received)
}

// Count returns the number of messages captured so far.
func (in *Inbox) Count() int {
	in.lock.Lock()
	defer in.lock.Unlock()
	return len(in.received)
}

// AwaitMessage consumes the next message from the arrival queue, waiting up
// to the timeout if none has arrived yet.
func (in *Inbox) AwaitMessage(timeout time.Duration) opt.Maybe[Message] {
	return helpers.TryReceive(in.arrivals, timeout)
}

// RequireMessage is equivalent to AwaitMessage, but causes the test to fail
// and terminate if no message arrived.
func (in *Inbox) RequireMessage(t helpers.TestContext, timeout time.Duration) Message {
	return helpers.RequireValueWithMessage(t, in.arrivals, timeout,
		"timed out waiting for a message to be sent")
}

// RequireNoMessage causes the test to fail and terminate if a message arrives
// on the queue within the timeout.
func (in *Inbox) RequireNoMessage(t helpers.TestContext, timeout time.Duration) {
	helpers.RequireNoMoreValuesWithMessage(t, in.arrivals, timeout,
		"did not expect a message to be sent, but got one")
}
