// Package logging contains the debug logging abstraction used by fixture
// lifecycles.
//
// Fixtures receive a Logger when they are bound, and drivers log phase
// transitions through the same interface. Test harnesses can plug in their
// own implementation, capture output for later inspection with
// CapturingLogger, or discard it with NullLogger.
package logging

import "fmt"

// Logger is a minimal logging interface that fixture code writes debug
// output to. It is deliberately small so that any logging framework can be
// adapted to it.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Println(args ...interface{})                {}
func (n nullLogger) Printf(message string, args ...interface{}) {}

// NullLogger returns a Logger that discards all output. It is the default
// for drivers that are not given a logger.
func NullLogger() Logger { return nullLogger{} }

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix returns a Logger that prepends a fixed prefix to every
// message before delegating to baseLogger. Drivers use this to tag each
// fixture's output with its declared name.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}

type funcLogger struct {
	fn func(message string)
}

// LoggerFunc returns a Logger that passes every formatted message to fn.
// This is a convenient way to route fixture output into *testing.T.Log or
// similar sinks.
func LoggerFunc(fn func(message string)) Logger {
	return funcLogger{fn}
}

func (f funcLogger) Println(args ...interface{}) {
	f.fn(trimLine(fmt.Sprintln(args...)))
}

func (f funcLogger) Printf(message string, args ...interface{}) {
	f.fn(fmt.Sprintf(message, args...))
}
