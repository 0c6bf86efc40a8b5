// Package metadata extracts typed header fields from the leading comment
// lines of a filter body (§4.B) and parses the Expires header's
// unit-sequence grammar.
package metadata

import "strings"

// Property identifies one recognised metadata key.
type Property int

const (
	PropTitle Property = iota
	PropDescription
	PropVersion
	PropExpires
	PropHomepage
	PropTimeUpdated
	PropLicense
	PropChecksum
	PropDiffPath
)

var keyToProperty = map[string]Property{
	"Title":          PropTitle,
	"Description":    PropDescription,
	"Version":        PropVersion,
	"Expires":        PropExpires,
	"Homepage":       PropHomepage,
	"TimeUpdated":    PropTimeUpdated,
	"Last modified":  PropTimeUpdated, // documented alias
	"License":        PropLicense,
	"Checksum":       PropChecksum,
	"Diff-Path":      PropDiffPath,
}

// maxLines is the collection cap (§4.B): scanning stops after this many
// non-empty lines regardless of outcome.
const maxLines = 100

// Collector scans leading comment lines for metadata key/value pairs.
// It is first-wins: once a key has a value, later occurrences of the
// same key are ignored. Collection is idempotent: re-running it over the
// same prefix of lines yields the same values (§8 "Metadata idempotence").
type Collector struct {
	values    map[Property]string
	lineCount int
	done      bool
}

// NewCollector returns an empty Collector ready to scan from the start
// of a filter body.
func NewCollector() *Collector {
	return &Collector{values: make(map[Property]string)}
}

// MarkReachedEOD flips the collector into "done" mode. The compiler calls
// this when it hits the first include directive, per §4.B's explicit
// end-of-data signal.
func (c *Collector) MarkReachedEOD() { c.done = true }

// Done reports whether the collector has stopped accepting lines, either
// because it was told to (MarkReachedEOD), it hit the 100-line cap, or it
// already saw the first non-comment non-empty line.
func (c *Collector) Done() bool { return c.done }

// ParseLine offers one line to the collector. Lines are expected inclusive
// of any trailing newline; ParseLine trims it.
func (c *Collector) ParseLine(line string) {
	if c.done {
		return
	}

	trimmed := strings.TrimRight(line, "\r\n")
	if trimmed == "" {
		return
	}

	if c.lineCount >= maxLines {
		c.done = true
		return
	}
	c.lineCount++

	if !strings.HasPrefix(trimmed, "!") {
		// First non-comment non-empty line: stop.
		c.done = true
		return
	}

	key, value, ok := parseMetadataLine(trimmed)
	if !ok {
		// A plain comment line, not a metadata line; keep scanning.
		return
	}

	prop, known := keyToProperty[key]
	if !known {
		return
	}
	if _, already := c.values[prop]; already {
		return
	}
	c.values[prop] = value
}

// parseMetadataLine recognises `!` + whitespace + key + `:` + value,
// where value is trimmed. "Last modified" is a two-word key and is
// matched explicitly since it contains a space before its colon.
func parseMetadataLine(line string) (key, value string, ok bool) {
	rest := strings.TrimPrefix(line, "!")
	rest = strings.TrimLeft(rest, " \t")

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", "", false
	}

	candidateKey := strings.TrimSpace(rest[:colon])
	candidateValue := strings.TrimSpace(rest[colon+1:])
	if candidateKey == "" {
		return "", "", false
	}
	if _, known := keyToProperty[candidateKey]; !known {
		return "", "", false
	}
	return candidateKey, candidateValue, true
}

// Get returns the first-wins value captured for prop, if any.
func (c *Collector) Get(prop Property) (string, bool) {
	v, ok := c.values[prop]
	return v, ok
}

// Values returns a defensive copy of everything collected so far.
func (c *Collector) Values() map[Property]string {
	out := make(map[Property]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
