package parsers

import (
	"io"
	"strings"

	"github.com/benvon/dashcollect/internal/models"
)

const wFields = 8

// ParseW parses `w -h` output into sessions grouped by user. Each line holds
// user, tty, from, login time, idle, JCPU, PCPU and the command, which may
// contain spaces.
func ParseW(r io.Reader) (map[string][]models.Session, error) {
	lines, err := readLines(SourceW, r)
	if err != nil {
		return nil, err
	}

	users := make(map[string][]models.Session)
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < wFields {
			return nil, parseErr(SourceW, i, "expected %d fields, got %d", wFields, len(fields))
		}
		user := fields[0]
		users[user] = append(users[user], models.Session{
			TTY:       fields[1],
			Host:      fields[2],
			LoginTime: fields[3],
			IdleTime:  fields[4],
			JCPU:      fields[5],
			PCPU:      fields[6],
			Command:   strings.Join(fields[7:], " "),
		})
	}
	return users, nil
}
