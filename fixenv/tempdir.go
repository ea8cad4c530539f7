package fixenv

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/launchdarkly/go-test-fixtures/fixture"
	"github.com/launchdarkly/go-test-fixtures/helpers"
	"github.com/launchdarkly/go-test-fixtures/logging"
)

// DirOption is the interface for optional configuration parameters of TempDir.
type DirOption helpers.ConfigOption[Dir]

type dirOptionPrefix struct{ prefix string }

func (o dirOptionPrefix) Configure(d *Dir) error {
	d.prefix = o.prefix
	return nil
}

// Prefix sets the name prefix of the created directory, to make it easier to
// tell apart in the filesystem.
func Prefix(prefix string) DirOption { return dirOptionPrefix{prefix} }

type tempDirFixture struct {
	options []DirOption
}

// TempDir returns a fixture that creates a temporary directory during setup
// and removes it, with everything in it, during teardown.
func TempDir(options ...DirOption) fixture.Fixture {
	return tempDirFixture{options: options}
}

func (f tempDirFixture) Bind(binding fixture.Binding) (fixture.Instance, error) {
	d := &Dir{logger: binding.Logger}
	if err := helpers.ApplyOptions(d, f.options...); err != nil {
		return nil, err
	}
	return d, nil
}

// Dir is the active form of a TempDir fixture.
type Dir struct {
	prefix string
	path   string
	logger logging.Logger
}

func (d *Dir) SetUp() error {
	pattern := d.prefix
	if pattern == "" {
		pattern = "fixture"
	}
	path, err := os.MkdirTemp("", pattern+"*")
	if err != nil {
		return err
	}
	d.path = path
	d.logger.Printf("created %s", path)
	return nil
}

func (d *Dir) TearDown() error {
	if d.path == "" {
		return nil
	}
	d.logger.Printf("removing %s", d.path)
	return os.RemoveAll(d.path)
}

// Path returns the absolute path of the directory.
func (d *Dir) Path() string { return d.path }

// WriteFile creates a file inside the directory and returns its full path.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	if d.path == "" {
		return "", errors.New("temporary directory has not been created yet")
	}
	fullPath := filepath.Join(d.path, name)
	if err := os.WriteFile(fullPath, data, 0600); err != nil {
		return "", err
	}
	return fullPath, nil
}
