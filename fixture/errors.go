package fixture

import (
	"fmt"
	"strings"
)

// OutOfLifecycleError is returned when a fixture instance is requested
// outside the window in which it is set up: before the lifecycle begins,
// after it ends, or while the fixture itself is not active.
type OutOfLifecycleError struct {
	Name  string
	Phase Phase
}

func (e *OutOfLifecycleError) Error() string {
	return fmt.Sprintf("fixture %q was accessed outside of its lifecycle (lifecycle is %s)", e.Name, e.Phase)
}

// SetupError is returned by Begin when binding or setting up a fixture fails.
// Name identifies the fixture and Cause is the error it produced. By the time
// a SetupError is returned, every fixture that had been set up before the
// failure has already been torn down.
type SetupError struct {
	Name  string
	Cause error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup of fixture %q failed: %s", e.Name, e.Cause)
}

func (e *SetupError) Unwrap() error { return e.Cause }

// Failure records one fixture's teardown error within a TeardownError.
type Failure struct {
	Name  string
	Cause error
}

func (f Failure) String() string { return fmt.Sprintf("%s: %s", f.Name, f.Cause) }

// TeardownError aggregates every failure from one teardown pass. Teardown
// never stops early, so a single TeardownError can carry failures from
// several fixtures; they appear in teardown (reverse declaration) order.
type TeardownError struct {
	Failures []Failure
}

func (e *TeardownError) Error() string {
	descriptions := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		descriptions = append(descriptions, f.String())
	}
	return fmt.Sprintf("teardown failed for %d fixture(s): %s",
		len(e.Failures), strings.Join(descriptions, "; "))
}

// Unwrap exposes the underlying causes so errors.Is and errors.As see
// through the aggregation.
func (e *TeardownError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Cause)
	}
	return errs
}

// DeclarationError indicates that the fixture declarations on an owner type
// are invalid, for instance a name declared twice.
type DeclarationError struct {
	Owner  string
	Name   string
	Reason string
}

func (e *DeclarationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid fixture declarations on %s: %s", e.Owner, e.Reason)
	}
	return fmt.Sprintf("invalid declaration of fixture %q on %s: %s", e.Name, e.Owner, e.Reason)
}

// UnknownFixtureError is returned when asking for a fixture name that was
// never declared.
type UnknownFixtureError struct {
	Name string
}

func (e *UnknownFixtureError) Error() string {
	return fmt.Sprintf("no fixture named %q was declared", e.Name)
}

// PhaseError indicates that a lifecycle operation was attempted in a phase
// where it is not allowed, such as calling Begin twice.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("cannot %s a lifecycle that is %s", e.Op, e.Phase)
}
