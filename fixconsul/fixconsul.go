// Package fixconsul provides a fixture for tests that use a Consul key-value
// store.
//
// Setup connects to the Consul agent and deletes every key, so every test
// starts from an empty store; teardown deletes everything again. The agent
// must already be running (normally in a local container) and must be one
// that is safe to wipe.
package fixconsul

import (
	"errors"
	"fmt"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
	"github.com/launchdarkly/go-test-fixtures/opt"
)

// Consul is limited to 64 operations per transaction, so any more than that
// must be split into multiple transactions.
const maxTxnOps = 64

// Option is the interface for optional configuration parameters of Store.
type Option helpers.ConfigOption[KV]

type optionAddress struct{ address string }

func (o optionAddress) Configure(kv *KV) error {
	if o.address == "" {
		return errors.New("address must not be empty")
	}
	kv.address = o.address
	return nil
}

// Address sets the address of the Consul agent. The default is whatever the
// Consul client library resolves from its environment.
func Address(address string) Option { return optionAddress{address} }

type optionToken struct{ token string }

func (o optionToken) Configure(kv *KV) error {
	kv.token = o.token
	return nil
}

// Token sets the ACL token used for all operations.
func Token(token string) Option { return optionToken{token} }

type storeFixture struct {
	options []Option
}

// Store returns a fixture for a clean Consul key-value store.
func Store(options ...Option) fixture.Fixture {
	return storeFixture{options: options}
}

func (f storeFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	kv := &KV{logger: binding.Logger}
	if err := helpers.ApplyOptions(kv, f.options...); err != nil {
		return nil, err
	}
	return kv, nil
}

// KV is the active form of a Store fixture.
type KV struct {
	address string
	token   string
	logger  logging.Logger
	kv      *consul.KV
}

func (c *KV) SetUp() error {
	config := consul.DefaultConfig()
	if c.address != "" {
		config.Address = c.address
	}
	if c.token != "" {
		config.Token = c.token
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return err
	}
	kv := client.KV()
	if _, err := kv.DeleteTree("/", nil); err != nil {
		return fmt.Errorf("could not reach Consul at %s: %w", config.Address, err)
	}
	c.address = config.Address
	c.logger.Printf("wiped Consul store at %s", config.Address)
	c.kv = kv
	return nil
}

func (c *KV) TearDown() error {
	if c.kv == nil {
		return nil
	}
	_, err := c.kv.DeleteTree("/", nil)
	c.kv = nil
	return err
}

// DSN returns the agent address for handing to code under test. It is only
// valid once the fixture has been set up.
func (c *KV) DSN() string {
	return c.address
}

// Get returns the value of a single key, or no value if the key is absent.
func (c *KV) Get(key string) (opt.Maybe[string], error) {
	pair, _, err := c.kv.Get(key, nil)
	if err != nil || pair == nil {
		return opt.None[string](), err
	}
	return opt.Some(string(pair.Value)), nil
}

// GetAll returns every key under the prefix, keyed by the remainder of the
// path after the prefix.
func (c *KV) GetAll(prefix string) (map[string]string, error) {
	pairs, _, err := c.kv.List(prefix+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("list failed for %s: %s", prefix, err)
	}
	results := make(map[string]string)
	for _, pair := range pairs {
		results[strings.TrimPrefix(pair.Key, prefix+"/")] = string(pair.Value)
	}
	return results, nil
}

// WriteAll makes the contents under the prefix exactly equal to data: new
// keys are written, existing keys are overwritten, and keys not present in
// data are deleted.
func (c *KV) WriteAll(prefix string, data map[string]string) error {
	// Start by reading the existing keys; we will later delete any of these
	// that weren't in data.
	pairs, _, err := c.kv.List(prefix+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to get existing items under %s: %s", prefix, err)
	}
	oldKeys := make(map[string]struct{})
	for _, p := range pairs {
		oldKeys[p.Key] = struct{}{}
	}

	ops := make([]*consul.KVTxnOp, 0)

	for k, v := range data {
		fullKey := prefix + "/" + k
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: fullKey, Value: []byte(v)})
		delete(oldKeys, fullKey)
	}

	for k := range oldKeys {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVDelete, Key: k})
	}

	// Submit all the queued operations, using as many transactions as needed. (We're not really using
	// transactions for atomicity, since we're not atomic anyway if there's more than one transaction,
	// but batching them reduces the number of calls to the server.)
	return c.batchOperations(ops)
}

// batchOperations applies a series of operations to Consul in batches of up
// to maxTxnOps operations.
func (c *KV) batchOperations(ops []*consul.KVTxnOp) error {
	for i := 0; i < len(ops); {
		j := i + maxTxnOps
		if j > len(ops) {
			j = len(ops)
		}
		batch := ops[i:j]
		ok, resp, _, err := c.kv.Txn(batch, nil)
		if err != nil {
			return err
		}
		if !ok {
			errs := make([]string, 0)
			for _, te := range resp.Errors {
				errs = append(errs, te.What)
			}
			//nolint:stylecheck // this error message is capitalized on purpose
			return fmt.Errorf("Consul transaction failed: %s", strings.Join(errs, ", "))
		}
		i = j
	}
	return nil
}
