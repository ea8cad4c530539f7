package helpers

import (
	"errors"
	"fmt"
	"strings"
)

// TestContext is a minimal interface for types like *testing.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on
// those packages.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
}

type tHelper interface {
	Helper()
}

// markHelper calls t.Helper() if the TestContext implementation supports it,
// so failure output points at the caller rather than at this package.
func markHelper(t TestContext) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

// TestRecorder is a TestContext implementation that simply records failures,
// for use in testing test logic itself.
type TestRecorder struct {
	// Errors contains the formatted message from each Errorf call so far.
	Errors []string

	// Terminated is true if FailNow has been called.
	Terminated bool

	// PanicOnTerminate causes FailNow to panic with a pointer to the recorder,
	// simulating how a real test framework stops the test goroutine. Callers
	// can recover the panic and verify that it is the same recorder.
	PanicOnTerminate bool
}

func (t *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	t.Errors = append(t.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (t *TestRecorder) FailNow() {
	t.Terminated = true
	if t.PanicOnTerminate {
		panic(t)
	}
}

// Err returns nil if no failures were recorded, or else an error whose message
// is all of the recorded failure messages joined with ", ".
func (t *TestRecorder) Err() error {
	if len(t.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(t.Errors, ", "))
}
