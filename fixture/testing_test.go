package fixture

import (
	"errors"
	"testing"

	"github.com/launchdarkly/go-test-fixtures/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTB is a TB for exercising Install without failing the real test.
type recordingTB struct {
	helpers.TestRecorder
	cleanups []func()
}

func (r *recordingTB) Cleanup(fn func()) { r.cleanups = append(r.cleanups, fn) }

func (r *recordingTB) runCleanups() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

func TestInstallRunsTheFullLifecycle(t *testing.T) {
	var log lifecycleLog
	owner, _, _, _ := makeThree(&log)

	t.Run("test using fixtures", func(t *testing.T) {
		d := Install(t, owner)
		assert.Equal(t, PhaseReady, d.Phase())
		assert.Equal(t, []string{"setup A", "setup B", "setup C"}, log.events)
	})

	// by the time the subtest has returned, its cleanup has ended the lifecycle
	assert.Equal(t, []string{
		"setup A", "setup B", "setup C",
		"teardown C", "teardown B", "teardown A",
	}, log.events)
}

func TestInstallFailsTheTestOnSetupError(t *testing.T) {
	var log lifecycleLog
	owner, fa, fb, _ := makeThree(&log)
	fb.setUpErr = errors.New("b is unavailable")

	tb := &recordingTB{TestRecorder: helpers.TestRecorder{PanicOnTerminate: true}}
	assert.PanicsWithValue(t, &tb.TestRecorder, func() { Install(tb, owner) })
	tb.runCleanups()

	if assert.Error(t, tb.Err()) {
		assert.Contains(t, tb.Err().Error(), `setup of fixture "B" failed: b is unavailable`)
	}
	// the unwind already happened inside Begin; cleanup added nothing more
	assert.Equal(t, []string{"setup A", "setup B", "teardown A"}, log.events)
	assert.Equal(t, 1, fa.lastInstance.tearDownCount)
}

func TestInstallReportsTeardownFailure(t *testing.T) {
	var log lifecycleLog
	owner, _, fb, _ := makeThree(&log)
	fb.tearDownErr = errors.New("b would not die")

	tb := &recordingTB{}
	Install(tb, owner)
	assert.NoError(t, tb.Err())

	tb.runCleanups()
	if assert.Error(t, tb.Err()) {
		assert.Contains(t, tb.Err().Error(), "fixture teardown failed")
		assert.Contains(t, tb.Err().Error(), "b would not die")
	}
	assert.False(t, tb.Terminated) // teardown failures do not abort anything
}

func TestInstallFailsTheTestOnDeclarationError(t *testing.T) {
	type owner struct {
		A Fixture
		B Fixture `fixture:"A"`
	}
	tb := &recordingTB{TestRecorder: helpers.TestRecorder{PanicOnTerminate: true}}
	assert.Panics(t, func() { Install(tb, &owner{A: &fakeFixture{}, B: &fakeFixture{}}) })
	assert.Error(t, tb.Err())
}

func TestGetAndLookup(t *testing.T) {
	var log lifecycleLog
	owner, fa, _, _ := makeThree(&log)
	d := Install(t, owner)

	t.Run("Lookup with the right type", func(t *testing.T) {
		inst, err := Lookup[*fakeInstance](d, "A")
		require.NoError(t, err)
		assert.Same(t, fa.lastInstance, inst)
	})

	t.Run("Lookup with the wrong type", func(t *testing.T) {
		_, err := Lookup[*compositeInstance](d, "A")
		var de *DeclarationError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Error(), "*fixture.fakeInstance")
	})

	t.Run("Lookup of unknown name", func(t *testing.T) {
		_, err := Lookup[*fakeInstance](d, "Nope")
		var ue *UnknownFixtureError
		require.ErrorAs(t, err, &ue)
	})

	t.Run("Get returns the typed instance", func(t *testing.T) {
		inst := Get[*fakeInstance](t, d, "A")
		assert.Same(t, fa.lastInstance, inst)
	})

	t.Run("Get fails the test on error", func(t *testing.T) {
		tr := helpers.TestRecorder{PanicOnTerminate: true}
		assert.PanicsWithValue(t, &tr, func() { Get[*fakeInstance](&tr, d, "Nope") })
		assert.Error(t, tr.Err())
	})
}

func TestInstallWithRealTestingT(t *testing.T) {
	// a realistic end-to-end usage: declarations on a suite struct, typed
	// access in the body, teardown handled by the testing package
	type suite struct {
		Server Fixture
		Client Fixture
	}
	var log lifecycleLog
	s := &suite{
		Server: &fakeFixture{log: &log},
		Client: &fakeFixture{log: &log},
	}

	t.Run("inner", func(t *testing.T) {
		d := Install(t, s)
		server := Get[*fakeInstance](t, d, "Server")
		client := Get[*fakeInstance](t, d, "Client")
		assert.Equal(t, "Server", server.name)
		assert.Equal(t, "Client", client.name)
	})

	assert.Equal(t, []string{
		"setup Server", "setup Client",
		"teardown Client", "teardown Server",
	}, log.events)
}
