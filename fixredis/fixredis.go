// Package fixredis provides a fixture for tests that use a Redis server.
//
// Setup connects to the server and clears it, so every test starts from an
// empty database; teardown clears it again and closes the connection. The
// server itself must already be running (normally in a local container) and
// must be one that is safe to flush.
package fixredis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
)

const defaultAddr = "localhost:6379"

// Option is the interface for optional configuration parameters of Store.
type Option helpers.ConfigOption[Database]

type optionAddr struct{ addr string }

func (o optionAddr) Configure(d *Database) error {
	if o.addr == "" {
		return errors.New("address must not be empty")
	}
	d.addr = o.addr
	return nil
}

// Addr sets the host:port of the Redis server. The default is localhost:6379.
func Addr(addr string) Option { return optionAddr{addr} }

type optionPassword struct{ password string }

func (o optionPassword) Configure(d *Database) error {
	d.password = o.password
	return nil
}

// Password sets the server password. The default is no password.
func Password(password string) Option { return optionPassword{password} }

type optionDB struct{ db int }

func (o optionDB) Configure(d *Database) error {
	d.db = o.db
	return nil
}

// DB selects a numbered Redis database. The default is 0.
func DB(db int) Option { return optionDB{db} }

type optionPrefix struct{ prefix string }

func (o optionPrefix) Configure(d *Database) error {
	d.prefix = o.prefix
	return nil
}

// Prefix sets a namespace prefix that WriteHash and ReadHash prepend to every
// key.
func Prefix(prefix string) Option { return optionPrefix{prefix} }

type storeFixture struct {
	options []Option
}

// Store returns a fixture for a clean Redis database.
func Store(options ...Option) fixture.Fixture {
	return storeFixture{options: options}
}

func (f storeFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	d := &Database{addr: defaultAddr, logger: binding.Logger}
	if err := helpers.ApplyOptions(d, f.options...); err != nil {
		return nil, err
	}
	return d, nil
}

// Database is the active form of a Store fixture.
type Database struct {
	addr     string
	password string
	db       int
	prefix   string
	logger   logging.Logger
	client   *redis.Client
}

func (d *Database) SetUp() error {
	client := redis.NewClient(&redis.Options{
		Addr:     d.addr,
		Password: d.password,
		DB:       d.db,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("could not reach Redis at %s: %w", d.addr, err)
	}
	if err := client.FlushAll(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	d.logger.Printf("flushed Redis at %s", d.addr)
	d.client = client
	return nil
}

func (d *Database) TearDown() error {
	if d.client == nil {
		return nil
	}
	flushErr := d.client.FlushAll(context.Background()).Err()
	closeErr := d.client.Close()
	d.client = nil
	return errors.Join(flushErr, closeErr)
}

// Client returns the underlying client, for operations this type does not
// cover. It is only valid once the fixture has been set up.
func (d *Database) Client() *redis.Client { return d.client }

// DSN returns the connection string for handing to code under test.
func (d *Database) DSN() string {
	return fmt.Sprintf("redis://%s", d.addr)
}

// WriteHash stores a hash under the (prefixed) key.
func (d *Database) WriteHash(key string, fields map[string]string) error {
	_, err := d.client.HSet(context.Background(), d.prefixed(key), fields).Result()
	return err
}

// ReadHash returns the hash stored under the (prefixed) key.
func (d *Database) ReadHash(key string) (map[string]string, error) {
	return d.client.HGetAll(context.Background(), d.prefixed(key)).Result()
}

func (d *Database) prefixed(key string) string {
	if d.prefix == "" {
		return key
	}
	return d.prefix + ":" + key
}
