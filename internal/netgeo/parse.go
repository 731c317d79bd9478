package netgeo

import (
	"regexp"
	"strings"

	"github.com/tbckr/netgeo/internal/markup"
	"github.com/tbckr/netgeo/internal/record"
)

// Markers the server puts on the first line of a reply it could not serve.
const (
	errorMarker = record.StatusHTTPError
	limitMarker = record.StatusLimitExceeded
)

// lineBreak is the markup terminating every data line.
const lineBreak = "<br>"

var (
	targetLine = regexp.MustCompile(`^TARGET:\s+(.*\S)\s*$`)
	statusLine = regexp.MustCompile(`^STATUS:\s+([\w\s]*\w)\s*$`)
	fieldLine  = regexp.MustCompile(`^(\w+):\s+(.*\S)\s*$`)
)

// Parse converts a raw NetGeo reply into a record.
//
// A blank reply yields STATUS "Empty content string". A first line carrying the
// server's error marker yields that line as STATUS, and a first line carrying
// the limit marker yields NETGEO_LIMIT_EXCEEDED. Otherwise everything before the
// first TARGET: line is skipped and every following "FIELD: value" line is
// stored under FIELD; other lines are ignored. A reply without a TARGET: line
// produces a record without TARGET.
func Parse(raw string) record.Record {
	if strings.TrimSpace(raw) == "" {
		return record.New("", record.StatusEmptyContent)
	}

	lines := strings.Split(raw, "\n")
	first := lines[0]
	switch {
	case strings.Contains(first, errorMarker):
		return record.New("", markup.Strip(first))
	case strings.Contains(first, limitMarker):
		return record.New("", record.StatusLimitExceeded)
	}

	start := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(line, "TARGET:") {
			start = i
			break
		}
	}

	var rec record.Record
	for _, line := range lines[start:] {
		line = trimLine(line)
		if m := targetLine.FindStringSubmatch(line); m != nil {
			rec.Target = m[1]
		} else if m := statusLine.FindStringSubmatch(line); m != nil {
			rec.Status = m[1]
		} else if m := fieldLine.FindStringSubmatch(line); m != nil {
			rec.Set(m[1], m[2])
		}
	}
	return rec
}

// trimLine strips ANSI escapes, trailing whitespace and the trailing line-break markup.
func trimLine(line string) string {
	line = strings.TrimRight(markup.StripANSI(line), " \t\r")
	return strings.TrimSuffix(line, lineBreak)
}
