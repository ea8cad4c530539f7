package fixhttp

import (
	"io"
	"regexp"
)

// filteredWriter drops any line matching one of the exclusion patterns. It
// sits between the HTTP server's error log and our logger, so that routine
// connection churn from tests does not drown out real problems.
type filteredWriter struct {
	writer       io.Writer
	excludeRegex []*regexp.Regexp
}

func newFilteredWriter(writer io.Writer, excludeRegex []*regexp.Regexp) *filteredWriter {
	return &filteredWriter{writer, excludeRegex}
}

func (f *filteredWriter) Write(data []byte) (int, error) {
	for _, r := range f.excludeRegex {
		if r.Match(data) {
			return len(data), nil
		}
	}
	return f.writer.Write(data)
}
