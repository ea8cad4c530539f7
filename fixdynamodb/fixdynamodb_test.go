package fixdynamodb

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dynamoOwner struct {
	DynamoDB fixture.Fixture
}

func bindTable(t *testing.T, options ...Option) *TableInstance {
	instance, err := Table("things", options...).Bind(fixture.Binding{Name: "DynamoDB", Logger: logging.NullLogger()})
	require.NoError(t, err)
	return instance.(*TableInstance)
}

func TestTableDefaults(t *testing.T) {
	ti := bindTable(t)
	assert.Equal(t, "things", ti.tableName)
	assert.Equal(t, defaultRegion, ti.region)
	assert.Equal(t, "", ti.endpoint)
	assert.Nil(t, ti.Client())
}

func TestTableOptions(t *testing.T) {
	ti := bindTable(t,
		Endpoint("http://localhost:8000"),
		Region("eu-west-1"),
		Credentials("id", "secret"))
	assert.Equal(t, "http://localhost:8000", ti.endpoint)
	assert.Equal(t, "eu-west-1", ti.region)
	assert.Equal(t, "id", ti.accessKeyID)
	assert.Equal(t, "secret", ti.secretAccessKey)
}

func TestTableRejectsEmptyName(t *testing.T) {
	_, err := Table("").Bind(fixture.Binding{Name: "DynamoDB", Logger: logging.NullLogger()})
	require.Error(t, err)
}

func TestTableRejectsEmptyRegion(t *testing.T) {
	_, err := Table("things", Region("")).Bind(fixture.Binding{Name: "DynamoDB", Logger: logging.NullLogger()})
	require.Error(t, err)
}

func TestSetUpFailsWhenEndpointUnreachable(t *testing.T) {
	owner := &dynamoOwner{DynamoDB: Table("things",
		Endpoint("http://localhost:1"),
		Credentials("dummy", "dummy"))}
	d, err := fixture.NewDriver(owner)
	require.NoError(t, err)

	err = d.Begin()
	var setupErr *fixture.SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "DynamoDB", setupErr.Name)
	assert.Contains(t, err.Error(), "could not reach DynamoDB")
}

func TestTearDownWithoutSetUpIsSafe(t *testing.T) {
	ti := bindTable(t)
	assert.NoError(t, ti.TearDown())
}

func TestIsTableNotFound(t *testing.T) {
	assert.False(t, isTableNotFound(nil))
	assert.False(t, isTableNotFound(errors.New("plain")))
	assert.False(t, isTableNotFound(awserr.New("Throttling", "slow down", nil)))
	assert.True(t, isTableNotFound(awserr.New(dynamodb.ErrCodeResourceNotFoundException, "no such table", nil)))
}
