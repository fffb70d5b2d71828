// Package model implements benchmark identity (BenchmarkId), the in-memory
// run model, and the on-disk persistence layout.
package model

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/kvit-s/critbench/internal/protocol"
)

// maxDirectoryNameLen bounds a single sanitised path component.
const maxDirectoryNameLen = 64

// maxTitleLen bounds the title before an ellipsis is appended.
const maxTitleLen = 100

var filenameUnsafe = []rune{'?', '"', '/', '\\', '*', '<', '>', ':', '|', '^'}

// BenchmarkId identifies one benchmark. Equality and hashing are on the
// (GroupID, FunctionID, ValueStr, Throughput) tuple; the derived display
// fields (FullID, Title, DirectoryName) never participate.
type BenchmarkId struct {
	GroupID    string
	FunctionID *string
	ValueStr   *string
	Throughput *protocol.Throughput

	FullID        string
	Title         string
	DirectoryName string
}

// IdentityKey is the comparable tuple used for equality, hashing, and
// duplicate detection.
type IdentityKey struct {
	GroupID    string
	FunctionID string
	ValueStr   string
	HasThrpt   bool
	ThrptKind  protocol.ThroughputKind
	ThrptCount uint64
}

// Key returns the identity tuple for map/set membership.
func (b *BenchmarkId) Key() IdentityKey {
	k := IdentityKey{GroupID: b.GroupID}
	if b.FunctionID != nil {
		k.FunctionID = *b.FunctionID
	}
	if b.ValueStr != nil {
		k.ValueStr = *b.ValueStr
	}
	if b.Throughput != nil {
		k.HasThrpt = true
		k.ThrptKind = b.Throughput.Kind
		k.ThrptCount = b.Throughput.Count
	}
	return k
}

// NewBenchmarkId constructs a BenchmarkId and computes its derived fields.
// It does not uniquify against any seen-set; callers do that separately
// (see EnsureDirectoryNameUnique / EnsureTitleUnique).
func NewBenchmarkId(groupID string, functionID, valueStr *string, throughput *protocol.Throughput) *BenchmarkId {
	b := &BenchmarkId{
		GroupID:    groupID,
		FunctionID: functionID,
		ValueStr:   valueStr,
		Throughput: throughput,
	}

	parts := []string{groupID}
	if functionID != nil {
		parts = append(parts, *functionID)
	}
	if valueStr != nil {
		parts = append(parts, *valueStr)
	}
	b.FullID = strings.Join(parts, "/")
	b.Title = truncateTitle(b.FullID)

	dirParts := []string{makeFilenameSafe(groupID)}
	if functionID != nil {
		dirParts = append(dirParts, makeFilenameSafe(*functionID))
	}
	if valueStr != nil {
		dirParts = append(dirParts, makeFilenameSafe(*valueStr))
	}
	b.DirectoryName = strings.Join(dirParts, "/")

	return b
}

func (b *BenchmarkId) String() string { return b.Title }

// makeFilenameSafe replaces filesystem-unsafe characters with '_', truncates
// to maxDirectoryNameLen bytes at a character boundary, and on
// case-insensitive filesystems also trims trailing whitespace and
// lowercases the result.
func makeFilenameSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isUnsafeRune(r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	safe := truncateToCharBoundary(b.String(), maxDirectoryNameLen)

	if caseInsensitiveFilesystem() {
		safe = strings.ToLower(strings.TrimRight(safe, " \t"))
	}
	return safe
}

func isUnsafeRune(r rune) bool {
	for _, u := range filenameUnsafe {
		if r == u {
			return true
		}
	}
	return false
}

// caseInsensitiveFilesystem approximates the reference tool's
// cfg(windows)/cfg(target_os = "macos") treatment: Windows and macOS default
// to case-insensitive filesystems, Linux does not.
func caseInsensitiveFilesystem() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// truncateToCharBoundary truncates s to at most maxBytes bytes, never
// slicing in the middle of a multibyte UTF-8 rune.
func truncateToCharBoundary(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	end := maxBytes
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

func truncateTitle(s string) string {
	if len(s) <= maxTitleLen {
		return s
	}
	return truncateToCharBoundary(s, maxTitleLen) + "..."
}

// EnsureDirectoryNameUnique appends "_2", "_3", ... to the last path
// component of name until it is absent from seen, then returns the unique
// name.
func EnsureDirectoryNameUnique(name string, seen map[string]bool) string {
	if !seen[name] {
		return name
	}
	dir, base := splitLastComponent(name)
	for n := 2; ; n++ {
		candidate := joinLastComponent(dir, fmt.Sprintf("%s_%d", base, n))
		if !seen[candidate] {
			return candidate
		}
	}
}

// EnsureTitleUnique appends " #2", " #3", ... to title until it is absent
// from seen, then returns the unique title.
func EnsureTitleUnique(title string, seen map[string]bool) string {
	if !seen[title] {
		return title
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s #%d", title, n)
		if !seen[candidate] {
			return candidate
		}
	}
}

func splitLastComponent(path string) (dir, base string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func joinLastComponent(dir, base string) string {
	if dir == "" {
		return base
	}
	return dir + "/" + base
}
