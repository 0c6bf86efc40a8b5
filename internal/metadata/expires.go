package metadata

import (
	"strconv"
	"strings"
)

// unit ranks, most to least significant — days, hours, minutes, seconds.
// An accepted token's rank must strictly increase (become less
// significant) relative to the previous accepted token; anything out of
// order, and everything after it, is dropped.
const (
	rankDays = iota
	rankHours
	rankMinutes
	rankSeconds
)

var unitMultiplier = map[int]float64{
	rankDays:    86400,
	rankHours:   3600,
	rankMinutes: 60,
	rankSeconds: 1,
}

func unitRank(unit string) (int, bool) {
	if unit == "" {
		return 0, false
	}
	switch unit[0] {
	case 'd', 'D':
		return rankDays, true
	case 'h', 'H':
		return rankHours, true
	case 'm', 'M':
		return rankMinutes, true
	case 's', 'S':
		return rankSeconds, true
	default:
		return 0, false
	}
}

// ParseExpires parses an Expires header value per the unit-sequence
// grammar `<decimal> <unit>` in strictly descending order
// days -> hours -> minutes -> seconds (units may be abbreviated). A bare
// integer with no unit at all is interpreted directly as seconds.
func ParseExpires(value string) int64 {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0
	}

	// Bare integer, no unit anywhere: interpret as seconds directly.
	if len(fields) == 1 {
		if n, err := strconv.ParseFloat(fields[0], 64); err == nil && isBareNumber(fields[0]) {
			return int64(n)
		}
	}

	var total float64
	lastRank := -1
	i := 0
	for i < len(fields) {
		numText, unitText, consumed := splitNumberUnit(fields, i)
		if numText == "" {
			break
		}
		n, err := strconv.ParseFloat(numText, 64)
		if err != nil {
			break
		}
		rank, ok := unitRank(unitText)
		if !ok || rank <= lastRank {
			break
		}
		total += n * unitMultiplier[rank]
		lastRank = rank
		i += consumed
	}

	return int64(total)
}

func isBareNumber(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

// splitNumberUnit reads one (number, unit) pair starting at fields[i].
// The pair may be a single token ("12.345hours" — not normally produced
// by strings.Fields on "12.345 hours", but handled for joined forms like
// "1d") or two tokens (number, then unit).
func splitNumberUnit(fields []string, i int) (numText, unitText string, consumed int) {
	tok := fields[i]
	j := 0
	for j < len(tok) && (isDigit(tok[j]) || tok[j] == '.') {
		j++
	}
	numText = tok[:j]
	if numText == "" {
		return "", "", 0
	}
	if j < len(tok) {
		// Unit is joined onto the number, e.g. "1d", "1seconds".
		return numText, tok[j:], 1
	}
	// Unit is the next token.
	if i+1 < len(fields) && isAlpha(fields[i+1]) {
		return numText, fields[i+1], 2
	}
	return "", "", 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// ClampExpires enforces the documented floor: a parsed value below
// minSeconds (3600 by convention) is replaced wholesale by
// configuredDefault, not clamped up to the floor itself.
func ClampExpires(parsedSeconds int64, minSeconds, configuredDefault int64) int64 {
	if parsedSeconds < minSeconds {
		return configuredDefault
	}
	return parsedSeconds
}
