package fixconsul

import (
	"testing"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consulOwner struct {
	Consul fixture.Fixture
}

func TestStoreOptionsAreApplied(t *testing.T) {
	instance, err := Store(Address("consul.internal:8500"), Token("secret")).
		Bind(fixture.Binding{Name: "Consul", Logger: logging.NullLogger()})
	require.NoError(t, err)

	kv := instance.(*KV)
	assert.Equal(t, "consul.internal:8500", kv.address)
	assert.Equal(t, "secret", kv.token)
}

func TestStoreRejectsEmptyAddress(t *testing.T) {
	_, err := Store(Address("")).Bind(fixture.Binding{Name: "Consul", Logger: logging.NullLogger()})
	require.Error(t, err)
}

func TestSetUpFailsWhenAgentUnreachable(t *testing.T) {
	owner := &consulOwner{Consul: Store(Address("localhost:1"))}
	d, err := fixture.NewDriver(owner)
	require.NoError(t, err)

	err = d.Begin()
	var setupErr *fixture.SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "Consul", setupErr.Name)
	assert.Contains(t, err.Error(), "could not reach Consul")
}

func TestTearDownWithoutSetUpIsSafe(t *testing.T) {
	instance, err := Store().Bind(fixture.Binding{Name: "Consul", Logger: logging.NullLogger()})
	require.NoError(t, err)
	assert.NoError(t, instance.TearDown())
}
