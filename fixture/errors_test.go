package fixture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t,
		`fixture "db" was accessed outside of its lifecycle (lifecycle is done)`,
		(&OutOfLifecycleError{Name: "db", Phase: PhaseDone}).Error())

	assert.Equal(t,
		`setup of fixture "db" failed: boom`,
		(&SetupError{Name: "db", Cause: errors.New("boom")}).Error())

	assert.Equal(t,
		`teardown failed for 2 fixture(s): b: boom b; a: boom a`,
		(&TeardownError{Failures: []Failure{
			{Name: "b", Cause: errors.New("boom b")},
			{Name: "a", Cause: errors.New("boom a")},
		}}).Error())

	assert.Equal(t,
		`invalid declaration of fixture "db" on *fixture.thing: declared more than once`,
		(&DeclarationError{Owner: "*fixture.thing", Name: "db", Reason: "declared more than once"}).Error())

	assert.Equal(t,
		`invalid fixture declarations on *fixture.thing: owner must be a non-nil pointer to a struct`,
		(&DeclarationError{Owner: "*fixture.thing", Reason: "owner must be a non-nil pointer to a struct"}).Error())

	assert.Equal(t,
		`no fixture named "db" was declared`,
		(&UnknownFixtureError{Name: "db"}).Error())

	assert.Equal(t,
		`cannot begin a lifecycle that is ready`,
		(&PhaseError{Op: "begin", Phase: PhaseReady}).Error())
}

func TestSetupErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &SetupError{Name: "db", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestTeardownErrorUnwrap(t *testing.T) {
	causeA := errors.New("cause a")
	causeB := errors.New("cause b")
	err := &TeardownError{Failures: []Failure{
		{Name: "a", Cause: causeA},
		{Name: "b", Cause: causeB},
	}}
	assert.ErrorIs(t, err, causeA)
	assert.ErrorIs(t, err, causeB)
	assert.NotErrorIs(t, err, errors.New("something else"))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "not started", PhaseNotStarted.String())
	assert.Equal(t, "setting up", PhaseSettingUp.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "tearing down", PhaseTearingDown.String())
	assert.Equal(t, "done", PhaseDone.String())
	assert.Equal(t, "unknown phase (99)", Phase(99).String())
}
