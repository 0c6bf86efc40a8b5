// Package patchdirective parses and validates patch file headers (§4.F):
// `diff [name:<tok> ]checksum:<sha1hex> lines:<n>`, followed by the RCS
// edit script body. A patch file with no `name:` token is single-resource;
// one with `name:` tokens is a batch of named sections.
package patchdirective

import (
	"crypto/sha1" //nolint:gosec // the wire format mandates SHA1, not a choice made here
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/steveyegge/flm/internal/flmerrors"
	"github.com/steveyegge/flm/internal/rcsdiff"
)

var directiveLineRe = regexp.MustCompile(`^diff (?:name:([A-Za-z0-9_-]{1,64}) )?checksum:([0-9a-fA-F]+) lines:(\d+)$`)

// Header is one parsed `diff ...` directive line.
type Header struct {
	Name     string // empty for a single-resource patch
	Checksum string // lowercase hex sha1
	Lines    int
}

// ParseHeader parses one directive line.
func ParseHeader(line string) (Header, error) {
	m := directiveLineRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return Header{}, flmerrors.New(flmerrors.Other, "malformed patch directive line: %q", line)
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return Header{}, flmerrors.New(flmerrors.Other, "malformed lines count in directive: %q", line)
	}
	return Header{Name: m[1], Checksum: strings.ToLower(m[2]), Lines: n}, nil
}

// Section is one extracted patch body: its header plus the raw edit
// script text that follows it.
type Section struct {
	Header Header
	Body   string
}

// ExtractSection scans patchFile for the directive whose Name equals
// resourceName (or, when resourceName is empty, the file's sole
// directive) and returns the header plus everything between that
// directive and the next `diff ` directive or end of file.
func ExtractSection(patchFile, resourceName string) (Section, error) {
	lines := strings.Split(patchFile, "\n")

	type found struct {
		header   Header
		startIdx int
		endIdx   int // exclusive
	}
	var match *found

	i := 0
	for i < len(lines) {
		if strings.HasPrefix(lines[i], "diff ") {
			hdr, err := ParseHeader(lines[i])
			if err != nil {
				i++
				continue
			}
			start := i + 1
			end := len(lines)
			for j := start; j < len(lines); j++ {
				if strings.HasPrefix(lines[j], "diff ") {
					end = j
					break
				}
			}
			if (resourceName == "" && hdr.Name == "") || (resourceName != "" && hdr.Name == resourceName) {
				match = &found{header: hdr, startIdx: start, endIdx: end}
				break
			}
			i = end
			continue
		}
		i++
	}

	if match == nil {
		return Section{}, flmerrors.New(flmerrors.EntityNotFound, "no patch section found for resource %q", resourceName)
	}

	return Section{
		Header: match.header,
		Body:   strings.Join(lines[match.startIdx:match.endIdx], "\n"),
	}, nil
}

// ValidateResult verifies a patch-applier result against its header:
// lines(result)-1 must equal header.Lines and sha1(result) must equal
// header.Checksum (case-insensitive hex compare).
func ValidateResult(result string, header Header) error {
	gotLines := rcsdiff.CountLines(result) - 1
	if gotLines != header.Lines {
		return flmerrors.New(flmerrors.InvalidChecksum, "line count mismatch: got %d, header declares %d", gotLines, header.Lines)
	}

	sum := sha1.Sum([]byte(result)) //nolint:gosec
	gotHex := hex.EncodeToString(sum[:])
	if !strings.EqualFold(gotHex, header.Checksum) {
		return flmerrors.New(flmerrors.InvalidChecksum, "checksum mismatch: actual=%s expected=%s", gotHex, header.Checksum)
	}
	return nil
}
