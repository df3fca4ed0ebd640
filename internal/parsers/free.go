package parsers

import (
	"io"
	"strconv"
	"strings"

	"github.com/benvon/dashcollect/internal/models"
)

const (
	freeMemLabel  = "Mem:"
	freeSwapLabel = "Swap:"
)

// ParseFree parses `free -t -m` output. The Mem row (six values) and the Swap
// row (three values) are located by their labels; the "-/+ buffers/cache:" row
// printed by procps before 3.3.10 and the Total row are ignored. Any other row
// is an error.
//
// The total-* fields are the memory and swap strings concatenated, e.g. "7962"
// and "2047" give "79622047". With numericTotals they are integer sums instead.
func ParseFree(r io.Reader, numericTotals bool) (models.QuickMemory, error) {
	var q models.QuickMemory

	lines, err := readLines(SourceFree, r)
	if err != nil {
		return q, err
	}

	var mem, swap []string
	memIdx := -1
	for i := 1; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case freeMemLabel:
			if mem != nil {
				return q, parseErr(SourceFree, i, "duplicate memory row")
			}
			if len(fields) != 7 {
				return q, parseErr(SourceFree, i, "expected 7 fields in memory row, got %d", len(fields))
			}
			mem, memIdx = fields, i
		case freeSwapLabel:
			if swap != nil {
				return q, parseErr(SourceFree, i, "duplicate swap row")
			}
			if len(fields) != 4 {
				return q, parseErr(SourceFree, i, "expected 4 fields in swap row, got %d", len(fields))
			}
			swap = fields
		case "-/+", "Total:":
		default:
			return q, parseErr(SourceFree, i, "unexpected row label %q", fields[0])
		}
	}
	if mem == nil {
		return q, &ParseError{Source: SourceFree, Msg: "missing Mem row"}
	}
	if swap == nil {
		return q, &ParseError{Source: SourceFree, Msg: "missing Swap row"}
	}

	q = models.QuickMemory{
		TotalMemory:  mem[1],
		UsedMemory:   mem[2],
		FreeMemory:   mem[3],
		SharedMemory: mem[4],
		BufferMemory: mem[5],
		CachedMemory: mem[6],
		TotalSwap:    swap[1],
		UsedSwap:     swap[2],
		FreeSwap:     swap[3],
	}

	if !numericTotals {
		q.TotalSpace = q.TotalMemory + q.TotalSwap
		q.TotalUsed = q.UsedMemory + q.UsedSwap
		q.TotalFree = q.FreeMemory + q.FreeSwap
		return q, nil
	}

	if q.TotalSpace, err = sum(q.TotalMemory, q.TotalSwap); err != nil {
		return models.QuickMemory{}, parseErr(SourceFree, memIdx, "total column: %v", err)
	}
	if q.TotalUsed, err = sum(q.UsedMemory, q.UsedSwap); err != nil {
		return models.QuickMemory{}, parseErr(SourceFree, memIdx, "used column: %v", err)
	}
	if q.TotalFree, err = sum(q.FreeMemory, q.FreeSwap); err != nil {
		return models.QuickMemory{}, parseErr(SourceFree, memIdx, "free column: %v", err)
	}
	return q, nil
}

func sum(a, b string) (string, error) {
	x, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return "", err
	}
	y, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(x+y, 10), nil
}
