package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fieldline-io/plansync/pkg/types"
)

// Free-text note cells open with headers like "21 Jan" or "3 February,
// call with leads". Parsing yields an optional date plus the unconsumed
// body; the year is never present and must be assumed by the caller.

var (
	dayMonthPattern = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]{3,})\b`)
	segmentSplit    = regexp.MustCompile(`\n\s*\n+`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// SplitSegments splits a multi-event note cell on blank lines, dropping
// empty segments.
func SplitSegments(cell string) []string {
	var segments []string
	for _, seg := range segmentSplit.Split(cell, -1) {
		if s := strings.TrimSpace(seg); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// DateHeader extracts the first day+month token from a segment, interpreted
// day-before-month in the assumed year, and returns the date together with
// the body text. When the token sits on the segment's first line, that line
// is consumed as a header and the body is the remainder; otherwise the whole
// segment is the body. No recognizable token yields an absent date and the
// entire text as body.
func DateHeader(segment string, assumedYear int) (types.Date, string) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return types.Date{}, ""
	}

	d := parseDayMonth(segment, assumedYear)
	if !d.Valid {
		return types.Date{}, segment
	}

	lines := strings.Split(segment, "\n")
	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first >= 0 && dayMonthPattern.MatchString(lines[first]) {
		body := strings.TrimSpace(strings.Join(lines[first+1:], "\n"))
		return d, body
	}
	return d, segment
}

// parseDayMonth finds the first "<day> <month-name>" token in text and
// resolves it in the assumed year. Tokens with unknown month names or
// impossible days are skipped.
func parseDayMonth(text string, assumedYear int) types.Date {
	for _, m := range dayMonthPattern.FindAllStringSubmatch(text, -1) {
		day, err := strconv.Atoi(m[1])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		prefix := strings.ToLower(m[2])
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
		month, ok := monthsByPrefix[prefix]
		if !ok {
			continue
		}
		candidate := time.Date(assumedYear, month, day, 0, 0, 0, 0, time.UTC)
		if candidate.Day() != day {
			// Day rolled over (e.g. 31 Feb); not a real date.
			continue
		}
		return types.DateOf(candidate)
	}
	return types.Date{}
}
