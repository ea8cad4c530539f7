// Package fixdynamodb provides a fixture for tests that use a DynamoDB
// table.
//
// Setup deletes and recreates the table, so every test starts from a known
// schema with no rows; teardown deletes the table. This is meant for a local
// DynamoDB instance (normally in a container), not a shared production one.
//
// Rows follow a two-level layout: the partition key groups rows into
// namespaces, the sort key identifies an item within its namespace, and the
// item's JSON text is stored alongside its version number.
package fixdynamodb

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
	"github.com/launchdarkly/go-test-fixtures/opt"
)

const (
	// Schema of the table
	tablePartitionKey = "namespace"
	tableSortKey      = "key"
	versionAttribute  = "version"
	itemJSONAttribute = "item"

	defaultRegion = "us-east-1"

	// BatchWriteItem can handle at most this many requests per call.
	maxBatchWriteSize = 25

	tableStateTimeout = time.Second * 30
)

// Option is the interface for optional configuration parameters of Table.
type Option helpers.ConfigOption[TableInstance]

type optionEndpoint struct{ endpoint string }

func (o optionEndpoint) Configure(t *TableInstance) error {
	t.endpoint = o.endpoint
	return nil
}

// Endpoint points the client at a specific DynamoDB endpoint, such as a
// local instance at http://localhost:8000.
func Endpoint(endpoint string) Option { return optionEndpoint{endpoint} }

type optionRegion struct{ region string }

func (o optionRegion) Configure(t *TableInstance) error {
	if o.region == "" {
		return errors.New("region must not be empty")
	}
	t.region = o.region
	return nil
}

// Region sets the AWS region. The default is us-east-1, which is fine for a
// local instance.
func Region(region string) Option { return optionRegion{region} }

type optionCredentials struct{ id, secret string }

func (o optionCredentials) Configure(t *TableInstance) error {
	t.accessKeyID = o.id
	t.secretAccessKey = o.secret
	return nil
}

// Credentials sets static credentials. A local DynamoDB instance accepts any
// non-empty values.
func Credentials(accessKeyID, secretAccessKey string) Option {
	return optionCredentials{accessKeyID, secretAccessKey}
}

type tableFixture struct {
	name    string
	options []Option
}

// Table returns a fixture for a clean DynamoDB table with the given name.
func Table(name string, options ...Option) fixture.Fixture {
	return tableFixture{name: name, options: options}
}

func (f tableFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	if f.name == "" {
		return nil, errors.New("table name must not be empty")
	}
	t := &TableInstance{tableName: f.name, region: defaultRegion, logger: binding.Logger}
	if err := helpers.ApplyOptions(t, f.options...); err != nil {
		return nil, err
	}
	return t, nil
}

// TableInstance is the active form of a Table fixture.
type TableInstance struct {
	tableName       string
	endpoint        string
	region          string
	accessKeyID     string
	secretAccessKey string
	logger          logging.Logger
	client          *dynamodb.DynamoDB
}

func (t *TableInstance) SetUp() error {
	config := aws.NewConfig().WithRegion(t.region)
	if t.endpoint != "" {
		config = config.WithEndpoint(t.endpoint)
	}
	if t.accessKeyID != "" {
		config = config.WithCredentials(credentials.NewStaticCredentials(t.accessKeyID, t.secretAccessKey, ""))
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return err
	}
	client := dynamodb.New(sess)

	if err := deleteTableIfExists(client, t.tableName); err != nil {
		return fmt.Errorf("could not reach DynamoDB: %w", err)
	}
	if err := awaitTableState(client, t.tableName, false); err != nil {
		return err
	}

	_, err = client.CreateTable(&dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(tablePartitionKey),
				AttributeType: aws.String("S"),
			},
			{
				AttributeName: aws.String(tableSortKey),
				AttributeType: aws.String("S"),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(tablePartitionKey),
				KeyType:       aws.String("HASH"),
			},
			{
				AttributeName: aws.String(tableSortKey),
				KeyType:       aws.String("RANGE"),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
		TableName: aws.String(t.tableName),
	})
	if err != nil {
		return err
	}
	if err := awaitTableState(client, t.tableName, true); err != nil {
		return err
	}

	t.logger.Printf("recreated table %q", t.tableName)
	t.client = client
	return nil
}

func (t *TableInstance) TearDown() error {
	if t.client == nil {
		return nil
	}
	err := deleteTableIfExists(t.client, t.tableName)
	t.client = nil
	return err
}

// Client returns the underlying client, for operations this type does not
// cover. It is only valid once the fixture has been set up.
func (t *TableInstance) Client() *dynamodb.DynamoDB { return t.client }

// Get returns the item stored under the namespace and key, or no value if
// there is none.
func (t *TableInstance) Get(namespace, key string) (opt.Maybe[string], error) {
	result, err := t.client.GetItem(&dynamodb.GetItemInput{
		TableName:      aws.String(t.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			tablePartitionKey: {S: aws.String(namespace)},
			tableSortKey:      {S: aws.String(key)},
		},
	})
	if err != nil || result == nil || result.Item == nil {
		return opt.None[string](), err
	}
	item := result.Item[itemJSONAttribute]
	if item == nil || item.S == nil {
		return opt.None[string](), nil
	}
	return opt.Some(*item.S), nil
}

// GetAll returns every item in the namespace, keyed by sort key.
func (t *TableInstance) GetAll(namespace string) (map[string]string, error) {
	query := &dynamodb.QueryInput{
		TableName:      aws.String(t.tableName),
		ConsistentRead: aws.Bool(true),
		KeyConditions: map[string]*dynamodb.Condition{
			tablePartitionKey: {
				ComparisonOperator: aws.String(dynamodb.ComparisonOperatorEq),
				AttributeValueList: []*dynamodb.AttributeValue{
					{S: aws.String(namespace)},
				},
			},
		},
	}

	results := map[string]string{}
	response, err := t.client.Query(query)
	if err != nil {
		return results, err
	}
	for _, item := range response.Items {
		itemKey := *item[tableSortKey].S
		results[itemKey] = *item[itemJSONAttribute].S
	}
	return results, nil
}

// WriteAll makes the contents of the namespace exactly equal to data: new
// keys are written, existing keys are overwritten, and keys not present in
// data are deleted. Each value must be a JSON object with a "version"
// property, which is stored as a separate attribute.
func (t *TableInstance) WriteAll(namespace string, data map[string]string) error {
	existing, err := t.GetAll(namespace)
	if err != nil {
		return err
	}
	unusedKeys := make(map[string]bool)
	for k := range existing {
		unusedKeys[k] = true
	}

	requests := make([]*dynamodb.WriteRequest, 0)

	for k, v := range data {
		var versioned struct {
			Version int `json:"version"`
		}
		if err := json.Unmarshal([]byte(v), &versioned); err != nil {
			return err
		}
		requests = append(requests, &dynamodb.WriteRequest{
			PutRequest: &dynamodb.PutRequest{
				Item: map[string]*dynamodb.AttributeValue{
					tablePartitionKey: {S: aws.String(namespace)},
					tableSortKey:      {S: aws.String(k)},
					itemJSONAttribute: {S: aws.String(v)},
					versionAttribute:  {N: aws.String(strconv.Itoa(versioned.Version))},
				},
			},
		})
		delete(unusedKeys, k)
	}

	for k := range unusedKeys {
		requests = append(requests, &dynamodb.WriteRequest{
			DeleteRequest: &dynamodb.DeleteRequest{Key: map[string]*dynamodb.AttributeValue{
				tablePartitionKey: {S: aws.String(namespace)},
				tableSortKey:      {S: aws.String(k)},
			}},
		})
	}

	if err := t.batchWriteRequests(requests); err != nil {
		return fmt.Errorf("failed to write %d items(s) in batches: %s", len(requests), err)
	}
	return nil
}

// batchWriteRequests executes a list of write requests (PutItem or
// DeleteItem) in batches of up to maxBatchWriteSize.
func (t *TableInstance) batchWriteRequests(requests []*dynamodb.WriteRequest) error {
	for len(requests) > 0 {
		batchSize := int(math.Min(float64(len(requests)), maxBatchWriteSize))
		batch := requests[:batchSize]
		requests = requests[batchSize:]

		_, err := t.client.BatchWriteItem(&dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{t.tableName: batch},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteTableIfExists(client *dynamodb.DynamoDB, name string) error {
	_, err := client.DeleteTable(&dynamodb.DeleteTableInput{TableName: aws.String(name)})
	if isTableNotFound(err) {
		return nil
	}
	return err
}

// awaitTableState polls until the table either exists in ACTIVE state or is
// gone, depending on wantExists.
func awaitTableState(client *dynamodb.DynamoDB, name string, wantExists bool) error {
	deadline := time.NewTimer(tableStateTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(time.Millisecond * 100)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for table %q (exists=%t)", name, wantExists)
		case <-ticker.C:
			out, err := client.DescribeTable(&dynamodb.DescribeTableInput{TableName: aws.String(name)})
			if wantExists {
				if err == nil && out.Table != nil && *out.Table.TableStatus == dynamodb.TableStatusActive {
					return nil
				}
				if err != nil && !isTableNotFound(err) {
					return err
				}
			} else {
				if isTableNotFound(err) {
					return nil
				}
				if err != nil {
					return err
				}
			}
		}
	}
}

func isTableNotFound(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeResourceNotFoundException
}
