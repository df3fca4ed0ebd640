package parsers

import (
	"io"
	"strconv"
	"strings"

	"github.com/benvon/dashcollect/internal/models"
)

const (
	topSummaryLine = 0
	topTasksLine   = 1
	topCPULine     = 2
	topFirstRow    = 7
)

// ParseTop parses `top -b -n1` output: the uptime/users/load line, the task
// counts, the CPU breakdown and, from line 8 on, one process per line.
func ParseTop(r io.Reader) (models.ProcessInfo, models.ProcessTable, error) {
	var info models.ProcessInfo

	lines, err := readLines(SourceTop, r)
	if err != nil {
		return info, nil, err
	}
	if len(lines) <= topCPULine {
		return info, nil, &ParseError{Source: SourceTop, Msg: "missing summary lines"}
	}

	if err := parseTopSummary(lines[topSummaryLine], &info); err != nil {
		return info, nil, err
	}
	if info.Tasks, err = parseTopTasks(lines[topTasksLine]); err != nil {
		return info, nil, err
	}
	if info.CPU, err = parseTopCPU(lines[topCPULine]); err != nil {
		return info, nil, err
	}

	table := models.NewProcessTable()
	width := len(models.ProcessColumns)
	for i := topFirstRow; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		if len(fields) < width {
			return info, nil, parseErr(SourceTop, i, "expected %d process fields, got %d", width, len(fields))
		}
		// Command names may contain spaces.
		fields[width-1] = strings.Join(fields[width-1:], " ")
		for c, column := range models.ProcessColumns {
			table[column] = append(table[column], fields[c])
		}
	}
	return info, table, nil
}

// parseTopSummary reads lines such as
//
//	top - 10:00:00 up 3 days,  2:03,  2 users,  load average: 0.10, 0.20, 0.30
//	top - 10:00:00 up 45 min,  1 user,  load average: 0.00, 0.01, 0.05
func parseTopSummary(line string, info *models.ProcessInfo) error {
	fields := strings.Split(line, ",")
	n := len(fields)
	if n < 5 {
		return parseErr(SourceTop, topSummaryLine, "expected at least 5 comma-separated fields, got %d", n)
	}

	label, first, ok := strings.Cut(fields[n-3], ":")
	if !ok || !strings.Contains(label, "load average") {
		return parseErr(SourceTop, topSummaryLine, "missing load average in %q", line)
	}
	loads := [3]*float64{&info.LoadAverage1, &info.LoadAverage2, &info.LoadAverage3}
	for i, raw := range []string{first, fields[n-2], fields[n-1]} {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return parseErr(SourceTop, topSummaryLine, "invalid load average %q", raw)
		}
		*loads[i] = v
	}

	users := strings.Fields(fields[n-4])
	if len(users) == 0 {
		return parseErr(SourceTop, topSummaryLine, "missing user count")
	}
	count, err := strconv.Atoi(users[0])
	if err != nil {
		return parseErr(SourceTop, topSummaryLine, "invalid user count %q", users[0])
	}
	info.NumUsers = count

	_, up, ok := strings.Cut(fields[0], " up ")
	if !ok {
		return parseErr(SourceTop, topSummaryLine, "missing uptime in %q", line)
	}
	parts := []string{strings.TrimSpace(up)}
	for _, f := range fields[1 : n-4] {
		parts = append(parts, strings.TrimSpace(f))
	}
	info.Uptime = strings.Join(parts, ", ")
	return nil
}

// parseTopTasks reads "Tasks: 123 total,   1 running, 122 sleeping,   0 stopped,   0 zombie".
//
// Each count is the first token of its comma segment, stored as an int. The
// second whitespace token of the raw line split is not the count: for every
// segment after the first it is the state label ("running", "sleeping", ...).
func parseTopTasks(line string) (models.TaskCounts, error) {
	var tasks models.TaskCounts

	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return tasks, parseErr(SourceTop, topTasksLine, "expected task summary, got %q", line)
	}
	fields := strings.Split(rest, ",")
	if len(fields) != 5 {
		return tasks, parseErr(SourceTop, topTasksLine, "expected 5 task counts, got %d", len(fields))
	}

	counts := [5]*int{&tasks.Total, &tasks.Running, &tasks.Sleeping, &tasks.Stopped, &tasks.Zombie}
	for i, f := range fields {
		tokens := strings.Fields(f)
		if len(tokens) == 0 {
			return tasks, parseErr(SourceTop, topTasksLine, "empty task count")
		}
		v, err := strconv.Atoi(tokens[0])
		if err != nil {
			return tasks, parseErr(SourceTop, topTasksLine, "invalid task count %q", tokens[0])
		}
		*counts[i] = v
	}
	return tasks, nil
}

// parseTopCPU reads both "%Cpu(s):  0.3 us,  0.2 sy, ..." and "Cpu(s):  0.3%us,  0.2%sy, ...".
func parseTopCPU(line string) (models.CPUPercentages, error) {
	var cpu models.CPUPercentages

	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return cpu, parseErr(SourceTop, topCPULine, "expected CPU summary, got %q", line)
	}
	fields := strings.Split(rest, ",")
	if len(fields) != 8 {
		return cpu, parseErr(SourceTop, topCPULine, "expected 8 CPU percentages, got %d", len(fields))
	}

	values := [8]*float64{&cpu.User, &cpu.System, &cpu.Nice, &cpu.Idle, &cpu.IOWait, &cpu.HI, &cpu.SI, &cpu.ST}
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if end := strings.IndexAny(f, "% "); end >= 0 {
			f = f[:end]
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return cpu, parseErr(SourceTop, topCPULine, "invalid CPU percentage %q", fields[i])
		}
		*values[i] = v
	}
	return cpu, nil
}
