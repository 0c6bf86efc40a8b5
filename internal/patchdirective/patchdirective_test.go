package patchdirective

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"
)

func TestParseHeaderSingleResource(t *testing.T) {
	h, err := ParseHeader("diff checksum:abc123 lines:42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Name != "" || h.Checksum != "abc123" || h.Lines != 42 {
		t.Errorf("got %+v", h)
	}
}

func TestParseHeaderBatchResource(t *testing.T) {
	h, err := ParseHeader("diff name:list1 checksum:DEADBEEF lines:3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Name != "list1" || h.Checksum != "deadbeef" || h.Lines != 3 {
		t.Errorf("got %+v", h)
	}
}

func TestExtractSectionFromBatch(t *testing.T) {
	batch := "diff name:list1 checksum:aaa lines:1\n" +
		"a1 1\nONE\n" +
		"diff name:list2 checksum:bbb lines:1\n" +
		"a1 1\nTWO\n"

	sec, err := ExtractSection(batch, "list2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a1 1\nTWO\n"
	if sec.Body != want {
		t.Errorf("Body = %q, want %q", sec.Body, want)
	}
	if sec.Header.Checksum != "bbb" {
		t.Errorf("Checksum = %q", sec.Header.Checksum)
	}
}

func TestExtractSectionMissingResource(t *testing.T) {
	batch := "diff name:list1 checksum:aaa lines:1\na1 1\nONE\n"
	if _, err := ExtractSection(batch, "list-missing"); err == nil {
		t.Fatal("expected error for missing resource")
	}
}

func TestValidateResultAccepts(t *testing.T) {
	result := "hello\nworld\n"
	sum := sha1.Sum([]byte(result))
	header := Header{Checksum: hex.EncodeToString(sum[:]), Lines: 2}
	if err := ValidateResult(result, header); err != nil {
		t.Fatalf("expected matching checksum to pass, got: %v", err)
	}
}

func TestValidateResultRejectsWrongChecksum(t *testing.T) {
	result := "hello\nworld\n"
	header := Header{Checksum: "0000000000000000000000000000000000000000", Lines: 2}
	if err := ValidateResult(result, header); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestValidateResultLineCountMismatch(t *testing.T) {
	result := "a\nb\nc\n"
	header := Header{Checksum: "0000000000000000000000000000000000000000", Lines: 99}
	if err := ValidateResult(result, header); err == nil {
		t.Fatal("expected line count mismatch error")
	}
}
