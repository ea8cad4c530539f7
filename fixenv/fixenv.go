// Package fixenv provides fixtures for process-level test state: environment
// variables and temporary directories.
//
// Environment variables are process-global, so tests that use these fixtures
// should not run in parallel with other tests that read the same variables.
package fixenv

import (
	"errors"
	"os"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/logging"
	"github.com/launchdarkly/go-test-fixtures/opt"
)

type envFixture struct {
	key   string
	value opt.Maybe[string]
}

// Set returns a fixture that sets the environment variable during setup and
// restores its previous state (value or absence) during teardown.
func Set(key, value string) fixture.Fixture {
	return envFixture{key: key, value: opt.Some(value)}
}

// Unset returns a fixture that removes the environment variable during setup
// and restores its previous state during teardown.
func Unset(key string) fixture.Fixture {
	return envFixture{key: key}
}

func (f envFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	if f.key == "" {
		return nil, errors.New("environment variable name must not be empty")
	}
	return &Var{key: f.key, value: f.value, logger: binding.Logger}, nil
}

// Var is the active form of an environment variable fixture.
type Var struct {
	key    string
	value  opt.Maybe[string]
	prior  opt.Maybe[string]
	logger logging.Logger
}

func (v *Var) SetUp() error {
	if prior, ok := os.LookupEnv(v.key); ok {
		v.prior = opt.Some(prior)
	} else {
		v.prior = opt.None[string]()
	}
	if value, defined := v.value.Get(); defined {
		v.logger.Printf("setting %s=%q", v.key, value)
		return os.Setenv(v.key, value)
	}
	v.logger.Printf("unsetting %s", v.key)
	return os.Unsetenv(v.key)
}

func (v *Var) TearDown() error {
	if prior, defined := v.prior.Get(); defined {
		return os.Setenv(v.key, prior)
	}
	return os.Unsetenv(v.key)
}

// Key returns the name of the variable.
func (v *Var) Key() string { return v.key }

// Value returns the variable's current value in the environment.
func (v *Var) Value() string { return os.Getenv(v.key) }
