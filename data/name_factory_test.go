package data

import (
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"

	"github.com/stretchr/testify/assert"
)

func TestNameFactoryMakesUniqueNames(t *testing.T) {
	f := NewNameFactory("abcde")
	assert.Equal(t, "abcde", f.Prefix())

	n1 := f.Next()
	n2 := f.Next()
	m.In(t).Assert(n1, m.StringHasPrefix("abcde."))
	m.In(t).Assert(n2, m.StringHasPrefix("abcde."))
	assert.NotEqual(t, n1, n2)
}

func TestNameFactoryCollisions(t *testing.T) {
	// two factories with the same prefix should still not produce the same
	// names, because each factory has its own random disambiguator
	f1, f2 := NewNameFactory("abcde"), NewNameFactory("abcde")
	assert.NotEqual(t, f1.Next(), f2.Next())
}
