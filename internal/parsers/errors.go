// Package parsers turns the text output of /proc files and procps tools into
// host snapshot models. Any malformed line fails the whole parse.
package parsers

import (
	"bufio"
	"fmt"
	"io"
)

// Source names used in ParseError.
const (
	SourceCPUInfo = "cpuinfo"
	SourceMemInfo = "meminfo"
	SourceFree    = "free"
	SourceTop     = "top"
	SourceW       = "w"
)

// ParseError reports a malformed line. Line is 1-based; zero means the input as a whole.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("parse %s: %s", e.Source, e.Msg)
	}
	return fmt.Sprintf("parse %s line %d: %s", e.Source, e.Line, e.Msg)
}

func parseErr(source string, index int, format string, args ...any) *ParseError {
	return &ParseError{Source: source, Line: index + 1, Msg: fmt.Sprintf(format, args...)}
}

const maxLineLength = 1024 * 1024

func readLines(source string, r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return lines, nil
}
