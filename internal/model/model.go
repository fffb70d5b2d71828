package model

import (
	"fmt"

	"github.com/kvit-s/critbench/internal/estimate"
)

// ChangeDirection classifies how a benchmark changed relative to its base
// run, for persistence and reporting.
type ChangeDirection string

const (
	ChangeNone         ChangeDirection = "NoChange"
	ChangeNotSignificant ChangeDirection = "NotSignificant"
	ChangeImproved     ChangeDirection = "Improved"
	ChangeRegressed    ChangeDirection = "Regressed"
)

// ChangeSummary is the persisted, compact summary of a comparison result.
type ChangeSummary struct {
	Mean      float64 `cbor:"mean"`
	Median    float64 `cbor:"median"`
	Direction ChangeDirection `cbor:"direction"`
}

// SavedStatistics is the on-disk record of one completed measurement run,
// written alongside the raw MeasuredValues.
type SavedStatistics struct {
	DatetimeUTC string                 `cbor:"datetime_utc"`
	HistoryID   *string                `cbor:"history_id,omitempty"`
	HistoryDesc *string                `cbor:"history_description,omitempty"`
	Estimates   estimate.Estimates     `cbor:"estimates"`
	Throughput  *ThroughputRecord      `cbor:"throughput,omitempty"`
	Change      *ChangeSummary         `cbor:"change,omitempty"`
}

// ThroughputRecord is the persisted form of a protocol.Throughput.
type ThroughputRecord struct {
	Kind  string `cbor:"kind"`
	Count uint64 `cbor:"count"`
}

// Benchmark is one id's accumulated in-memory state for the current run.
type Benchmark struct {
	ID *BenchmarkId
}

// BenchmarkGroup is the set of benchmarks registered under one group in the
// current run.
type BenchmarkGroup struct {
	Benchmarks map[IdentityKey]*Benchmark
}

// Model is the controller's in-memory run state: which ids have been seen
// (for uniquification and duplicate detection) and the per-group benchmark
// registry. It is owned exclusively by the controller and mutated only
// between protocol messages, never concurrently.
type Model struct {
	Home     string
	Timeline string

	seenDirs   map[string]bool
	seenTitles map[string]bool
	seenKeys   map[IdentityKey]string // identity -> the target name that first registered it

	Groups map[string]*BenchmarkGroup
}

// NewModel constructs an empty Model rooted at home, operating on the given
// timeline (use "main" for the default).
func NewModel(home, timeline string) *Model {
	return &Model{
		Home:       home,
		Timeline:   timeline,
		seenDirs:   make(map[string]bool),
		seenTitles: make(map[string]bool),
		seenKeys:   make(map[IdentityKey]string),
		Groups:     make(map[string]*BenchmarkGroup),
	}
}

// AddBenchmarkGroup ensures a group scope exists, returning it.
func (m *Model) AddBenchmarkGroup(groupID string) *BenchmarkGroup {
	g, ok := m.Groups[groupID]
	if !ok {
		g = &BenchmarkGroup{Benchmarks: make(map[IdentityKey]*Benchmark)}
		m.Groups[groupID] = g
	}
	return g
}

// CheckBenchmarkGroup reports whether groupID has already been opened this
// run.
func (m *Model) CheckBenchmarkGroup(groupID string) bool {
	_, ok := m.Groups[groupID]
	return ok
}

// AddBenchmarkId uniquifies id's directory name and title against what has
// already been seen this run, mutates id in place with the unique values,
// and registers it in its group. This happens unconditionally, even for a
// repeat of an identity tuple already seen this run, matching
// original_source/src/model.rs's add_benchmark_id: directory/title
// uniquification and group registration always run first, and only then is
// a duplicate-identity warning raised if the tuple had already been seen
// (under any target, including the same one).
func (m *Model) AddBenchmarkId(targetName string, id *BenchmarkId) (warning string) {
	id.DirectoryName = EnsureDirectoryNameUnique(id.DirectoryName, m.seenDirs)
	m.seenDirs[id.DirectoryName] = true

	id.Title = EnsureTitleUnique(id.Title, m.seenTitles)
	m.seenTitles[id.Title] = true

	key := id.Key()
	group := m.AddBenchmarkGroup(id.GroupID)
	group.Benchmarks[key] = &Benchmark{ID: id}

	if owner, dup := m.seenKeys[key]; dup {
		warning = fmt.Sprintf("Benchmark %q in target %q was already registered by target %q; this run's results will not overwrite it.", id.FullID, targetName, owner)
		return warning
	}
	m.seenKeys[key] = targetName
	return ""
}

// BenchmarkComplete is a hook point mirroring the reference model's
// lifecycle; in this implementation registration and completion are the
// same step (AddBenchmarkId), so BenchmarkComplete is currently a no-op
// reserved for future per-completion bookkeeping (e.g. run counters).
func (m *Model) BenchmarkComplete(_ *BenchmarkId) {}
