// Package checksum locates and verifies a filter body's self-declared
// base64-MD5 checksum (§4.C): `! Checksum: <base64>` within the first 50
// non-empty lines.
package checksum

import (
	"crypto/md5" //nolint:gosec // the wire format mandates MD5, not a choice made here
	"encoding/base64"
	"strings"

	"github.com/steveyegge/flm/internal/flmerrors"
)

const maxScanLines = 50

const checksumPrefix = "! Checksum:"

// Validate scans body for a checksum line and, if present, verifies it.
// found reports whether a checksum line was present at all; per §4.C, its
// absence is success with found=false ("no checksum to check").
func Validate(body string) (found bool, err error) {
	declared, ok := findChecksumLine(body)
	if !ok {
		return false, nil
	}

	stripped := removeChecksumLine(body)
	normalized := normalizeNewlines(stripped)

	for _, candidate := range trailingNewlineCandidates(normalized) {
		if computeBase64MD5(candidate) == declared {
			return true, nil
		}
	}

	actual := computeBase64MD5(normalized)
	return true, flmerrors.New(flmerrors.InvalidChecksum, "checksum mismatch: actual=%s expected=%s", actual, declared)
}

func findChecksumLine(body string) (value string, ok bool) {
	lines := strings.Split(normalizeNewlines(body), "\n")
	scanned := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		scanned++
		if scanned > maxScanLines {
			return "", false
		}
		if strings.HasPrefix(line, checksumPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, checksumPrefix)), true
		}
	}
	return "", false
}

func removeChecksumLine(body string) string {
	normalized := normalizeNewlines(body)
	lines := strings.Split(normalized, "\n")
	out := lines[:0:0]
	for _, line := range lines {
		if strings.HasPrefix(line, checksumPrefix) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// trailingNewlineCandidates yields the three trailing-newline variants a
// checksum may have been computed against: as-is, one trailing newline
// popped, one trailing newline appended.
func trailingNewlineCandidates(s string) []string {
	popped := strings.TrimSuffix(s, "\n")
	appended := s + "\n"
	return []string{s, popped, appended}
}

func computeBase64MD5(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return base64.StdEncoding.WithPadding(base64.NoPadding).EncodeToString(sum[:])
}
