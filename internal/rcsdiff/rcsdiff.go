// Package rcsdiff applies RCS `diff -n` edit scripts to a line-oriented
// text buffer (§4.E): `aN C` inserts C patch lines after base line N;
// `dN C` deletes C base lines starting at N (both 1-based).
package rcsdiff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/steveyegge/flm/internal/flmerrors"
)

var directiveRe = regexp.MustCompile(`^([ad])(\d+) (\d+)$`)
var diffPathRe = regexp.MustCompile(`(?i)!\s*Diff-Path\s*:`)

// Result is the outcome of one patch application.
type Result struct {
	Body            string
	NextDiffPath    string
	HasNextDiffPath bool
}

// Apply applies patch to base. base and patch are newline-delimited
// texts; a trailing "\n" produces a significant trailing empty element
// when split, matching the source's "last empty line significant"
// contract.
func Apply(base, patch string) (Result, error) {
	baseLines := strings.Split(base, "\n")
	patchLines := strings.Split(patch, "\n")

	var out []string
	cursor := 0 // base lines [0:cursor) already emitted
	pi := 0
	lastWasInsert := false
	var lastInsertContent []string
	var nextDiffPath string
	haveDiffPath := false

	scanForDiffPath := func(line string) {
		if diffPathRe.MatchString(line) {
			if idx := strings.IndexByte(line, ':'); idx >= 0 {
				nextDiffPath = strings.TrimSpace(line[idx+1:])
				haveDiffPath = true
			}
		}
	}

	emitBaseThrough := func(limit int) error {
		if limit > len(baseLines) {
			return flmerrors.New(flmerrors.Other, "directive addresses base line %d beyond buffer end (%d lines)", limit, len(baseLines))
		}
		for ; cursor < limit; cursor++ {
			out = append(out, baseLines[cursor])
			scanForDiffPath(baseLines[cursor])
		}
		return nil
	}

	for pi < len(patchLines) {
		line := patchLines[pi]
		m := directiveRe.FindStringSubmatch(line)
		if m == nil {
			// A lazily-produced patch sequence should only ever present a
			// directive here; a stray line means the patch is malformed,
			// but we skip defensively rather than corrupt the cursor.
			pi++
			continue
		}
		pi++

		kind := m[1]
		n, _ := strconv.Atoi(m[2])
		c, _ := strconv.Atoi(m[3])

		switch kind {
		case "a":
			if err := emitBaseThrough(n); err != nil {
				return Result{}, err
			}
			content := make([]string, 0, c)
			for j := 0; j < c && pi < len(patchLines); j++ {
				content = append(content, patchLines[pi])
				pi++
			}
			for _, cl := range content {
				out = append(out, cl)
				scanForDiffPath(cl)
			}
			lastWasInsert = true
			lastInsertContent = content

		case "d":
			target := n - 1
			if err := emitBaseThrough(target); err != nil {
				return Result{}, err
			}
			end := target + c
			if end > len(baseLines) {
				return Result{}, flmerrors.New(flmerrors.Other, "delete directive d%d %d runs past buffer end (%d lines)", n, c, len(baseLines))
			}
			cursor = end
			lastWasInsert = false
			lastInsertContent = nil
		}
	}

	if err := emitBaseThrough(len(baseLines)); err != nil {
		return Result{}, err
	}

	baseEndsEmpty := len(baseLines) > 0 && baseLines[len(baseLines)-1] == ""
	patchEndsEmpty := len(lastInsertContent) > 0 && lastInsertContent[len(lastInsertContent)-1] == ""
	keepTrailing := lastWasInsert && (baseEndsEmpty != patchEndsEmpty) // "exactly one of"

	if len(out) > 0 && out[len(out)-1] == "" && !keepTrailing {
		out = out[:len(out)-1]
	}

	return Result{
		Body:            strings.Join(out, "\n"),
		NextDiffPath:    nextDiffPath,
		HasNextDiffPath: haveDiffPath,
	}, nil
}

// CountLines returns the number of lines a body represents under the same
// "last empty line significant" convention used by Apply, so validators
// can compare against a patch header's declared line count.
func CountLines(body string) int {
	return len(strings.Split(body, "\n"))
}
