package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func messagesOf(output CapturedOutput) []string {
	var ret []string
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

func TestNullLogger(t *testing.T) {
	l := NullLogger()
	l.Println("a", "b")
	l.Printf("%d", 1) // does not panic, produces nothing
}

func TestCapturingLogger(t *testing.T) {
	var l CapturingLogger
	l.Println("first", "line")
	l.Printf("second %s", "line")

	out := l.Output()
	assert.Equal(t, []string{"first line", "second line"}, messagesOf(out))
	for _, m := range out {
		assert.False(t, m.Time.IsZero())
	}
}

func TestCapturingLoggerReroutesToChildren(t *testing.T) {
	var parent, child1, child2 CapturingLogger
	parent.Println("before children")

	parent.AddChildLogger(&child1)
	parent.AddChildLogger(&child2)
	parent.Println("while children attached")

	assert.Equal(t, []string{"before children"}, messagesOf(parent.Output()))
	assert.Equal(t, []string{"before children", "while children attached"}, messagesOf(child1.Output()))
	assert.Equal(t, []string{"before children", "while children attached"}, messagesOf(child2.Output()))

	parent.RemoveChildLogger(&child1)
	parent.RemoveChildLogger(&child2)
	parent.Println("after children removed")

	assert.Equal(t, []string{"before children", "after children removed"}, messagesOf(parent.Output()))
	assert.Equal(t, []string{"before children", "while children attached"}, messagesOf(child1.Output()))
}

func TestLoggerWithPrefix(t *testing.T) {
	var base CapturingLogger
	l := LoggerWithPrefix(&base, "[x] ")
	l.Printf("value is %d", 3)
	l.Println("done")

	assert.Equal(t, []string{"[x] value is 3", "[x]  done"}, messagesOf(base.Output()))
}

func TestLoggerFunc(t *testing.T) {
	var lines []string
	l := LoggerFunc(func(message string) { lines = append(lines, message) })
	l.Println("a", 1)
	l.Printf("b=%v", true)

	assert.Equal(t, []string{"a 1", "b=true"}, lines)
}

func TestCapturedOutputToString(t *testing.T) {
	var l CapturingLogger
	l.Println("one")
	l.Println("two")
	out := l.Output()

	s := out.ToString(">> ")
	assert.Contains(t, s, fmt.Sprintf(">> [%s] one", out[0].Time.Format(timestampFormat)))
	assert.Contains(t, s, "two")
	assert.Equal(t, "", CapturedOutput(nil).ToString(">> "))
}
