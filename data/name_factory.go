package data

import (
	"fmt"
	"math/rand"
	"time"
)

var nameRandomizer = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gochecknoglobals,gosec

// NameFactory is a test data generator that produces unique names.
//
// Each generated name starts with the prefix, followed by a random
// disambiguator chosen once per factory and a per-factory counter. Fixtures
// use these names for keys and resources in shared external stores, so that
// tests which run repeatedly, or concurrently against the same store, do not
// collide with each other's data.
type NameFactory struct {
	prefix        string
	disambiguator int64
	counter       int
}

// NewNameFactory creates a NameFactory with the given prefix.
func NewNameFactory(prefix string) *NameFactory {
	return &NameFactory{
		prefix:        prefix,
		disambiguator: nameRandomizer.Int63(),
	}
}

// Next returns a name that no previous or future call, on this factory or
// any other, is expected to return.
func (f *NameFactory) Next() string {
	f.counter++
	return fmt.Sprintf("%s.%d.%d", f.prefix, f.disambiguator, f.counter)
}

// Prefix returns the prefix the factory was created with.
func (f *NameFactory) Prefix() string { return f.prefix }
