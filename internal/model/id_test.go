package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestMakeFilenameSafeStripsUnsafeChars(t *testing.T) {
	unsafe := `?"/\*<>:|^`
	got := makeFilenameSafe("a" + unsafe + "b")
	for _, r := range unsafe {
		if strings.ContainsRune(got, r) {
			t.Errorf("expected %q to be stripped, got %q", string(r), got)
		}
	}
}

func TestMakeFilenameSafeTruncatesAtCharBoundary(t *testing.T) {
	// "é" is two bytes in UTF-8; build a string whose safe-byte-64 cut point
	// would otherwise land mid-rune.
	long := strings.Repeat("é", 40) // 80 bytes
	got := makeFilenameSafe(long)
	if len(got) > maxDirectoryNameLen {
		t.Errorf("expected length <= %d, got %d", maxDirectoryNameLen, len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("expected %q to end on a character boundary", got)
	}
}

func TestTitleTruncationAndEllipsis(t *testing.T) {
	long := strings.Repeat("x", 150)
	title := truncateTitle(long)
	if len(title) > 103 {
		t.Errorf("expected title length <= 103, got %d", len(title))
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("expected truncated title to end with '...', got %q", title)
	}

	short := "short_title"
	if got := truncateTitle(short); got != short {
		t.Errorf("expected untruncated title to be unchanged, got %q", got)
	}
}

func TestEnsureDirectoryNameUniqueAppendsSuffix(t *testing.T) {
	seen := map[string]bool{"g/f": true}
	got := EnsureDirectoryNameUnique("g/f", seen)
	if got != "g/f_2" {
		t.Errorf("expected g/f_2, got %q", got)
	}
	if seen[got] {
		t.Errorf("EnsureDirectoryNameUnique should not mutate the seen set")
	}
}

func TestEnsureDirectoryNameUniqueSkipsMultipleCollisions(t *testing.T) {
	seen := map[string]bool{"g/f": true, "g/f_2": true, "g/f_3": true}
	got := EnsureDirectoryNameUnique("g/f", seen)
	if got != "g/f_4" {
		t.Errorf("expected g/f_4, got %q", got)
	}
}

func TestEnsureTitleUniqueAppendsHashN(t *testing.T) {
	seen := map[string]bool{"g/f": true}
	got := EnsureTitleUnique("g/f", seen)
	if got != "g/f #2" {
		t.Errorf("expected 'g/f #2', got %q", got)
	}
}

func TestNewBenchmarkIdDerivesFields(t *testing.T) {
	fn := "func"
	val := "input"
	id := NewBenchmarkId("group", &fn, &val, nil)
	if id.FullID != "group/func/input" {
		t.Errorf("unexpected full id: %q", id.FullID)
	}
	if id.DirectoryName != "group/func/input" {
		t.Errorf("unexpected directory name: %q", id.DirectoryName)
	}
}

func TestNewBenchmarkIdOmitsMissingComponents(t *testing.T) {
	id := NewBenchmarkId("group", nil, nil, nil)
	if id.FullID != "group" {
		t.Errorf("expected full id 'group', got %q", id.FullID)
	}
}

func TestBenchmarkIdKeyIgnoresDisplayFields(t *testing.T) {
	fn := "f"
	a := NewBenchmarkId("g", &fn, nil, nil)
	b := NewBenchmarkId("g", &fn, nil, nil)
	b.Title = "something else entirely"
	if a.Key() != b.Key() {
		t.Errorf("expected identity keys to match regardless of derived Title")
	}
}
