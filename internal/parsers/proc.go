package parsers

import (
	"io"
	"strings"

	"github.com/benvon/dashcollect/internal/models"
)

// ParseCPUInfo parses /proc/cpuinfo into one map per processor record. Records
// are separated by blank lines; each other line is "key : value".
func ParseCPUInfo(r io.Reader) ([]models.ProcessorInfo, error) {
	lines, err := readLines(SourceCPUInfo, r)
	if err != nil {
		return nil, err
	}

	processors := []models.ProcessorInfo{}
	current := models.ProcessorInfo{}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				processors = append(processors, current)
				current = models.ProcessorInfo{}
			}
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			return nil, parseErr(SourceCPUInfo, i, "expected \"key: value\", got %q", line)
		}
		current[key] = value
	}
	if len(current) > 0 {
		processors = append(processors, current)
	}
	return processors, nil
}

// ParseMemInfo parses /proc/meminfo. Values keep their unit, e.g. "8153456 kB".
func ParseMemInfo(r io.Reader) (map[string]string, error) {
	lines, err := readLines(SourceMemInfo, r)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			return nil, parseErr(SourceMemInfo, i, "expected \"key: value\", got %q", line)
		}
		fields[key] = value
	}
	return fields, nil
}

func splitKeyValue(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
