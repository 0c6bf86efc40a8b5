// Package sniffer rejects filter bodies that are obviously not filter
// lists: HTML/XML pages (§4.D) or known binary formats.
package sniffer

import (
	"bytes"
	"strings"

	"github.com/steveyegge/flm/internal/flmerrors"
)

var htmlMarkers = []string{
	"<!doctype", "<?xml", "<html", "<head", "<body",
	"<script", "<div", "<table", "<meta", "<!--",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CheckIsLikelyFilter inspects text content and returns an error of kind
// FilterContentIsLikelyNotAFilter when it looks like markup rather than a
// rule list.
func CheckIsLikelyFilter(content string) error {
	trimmed := strings.TrimLeft(strings.TrimPrefix(content, string(utf8BOM)), " \t\r\n")
	lower := strings.ToLower(trimmed)
	for _, marker := range htmlMarkers {
		if strings.HasPrefix(lower, marker) {
			return flmerrors.New(flmerrors.FilterContentIsLikelyNotAFilter, "content starts with %q", marker)
		}
	}
	return nil
}

var binaryMagic = map[string][]byte{
	"jpeg": {0xFF, 0xD8, 0xFF},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"pdf":  {0x25, 0x50, 0x44, 0x46},
}

// IsKnownBinaryFormat recognises JPEG/PNG/GIF/PDF magic numbers. Callers
// apply this before attempting UTF-8 conversion.
func IsKnownBinaryFormat(raw []byte) (format string, ok bool) {
	for name, magic := range binaryMagic {
		if bytes.HasPrefix(raw, magic) {
			return name, true
		}
	}
	return "", false
}
