package controller

import (
	"testing"

	"github.com/kvit-s/critbench/internal/compile"
	"github.com/kvit-s/critbench/internal/critbench"
	"github.com/kvit-s/critbench/internal/model"
	"github.com/kvit-s/critbench/internal/target"
)

func TestFilterDiscoveredTargetsDefaultKeepsBinsAndTests(t *testing.T) {
	targets := []compile.Target{
		{Name: "a", Kind: compile.KindBin},
		{Name: "b", Kind: compile.KindTest},
		{Name: "c", Kind: compile.KindLib},
	}

	out := filterDiscoveredTargets(targets, Options{})
	if len(out) != 2 {
		t.Fatalf("expected bin+test targets kept by default, got %+v", out)
	}
}

func TestFilterDiscoveredTargetsLibOptIn(t *testing.T) {
	targets := []compile.Target{
		{Name: "a", Kind: compile.KindBin},
		{Name: "c", Kind: compile.KindLib},
	}

	out := filterDiscoveredTargets(targets, Options{Lib: true})
	if len(out) != 1 || out[0].Name != "c" {
		t.Fatalf("expected only the lib target with -lib, got %+v", out)
	}
}

func TestFilterDiscoveredTargetsBinSelectsByName(t *testing.T) {
	targets := []compile.Target{
		{Name: "a", Kind: compile.KindBin},
		{Name: "b", Kind: compile.KindBin},
	}

	out := filterDiscoveredTargets(targets, Options{Bins: []string{"b"}})
	if len(out) != 1 || out[0].Name != "b" {
		t.Fatalf("expected only target b, got %+v", out)
	}
}

func TestBuildFilterMatchesFullID(t *testing.T) {
	filter := buildFilter([]string{"^g/f.*"})
	id := model.NewBenchmarkId("g", strPtr("foo"), nil, nil)
	if !filter(id) {
		t.Error("expected filter to match g/foo")
	}

	other := model.NewBenchmarkId("h", strPtr("foo"), nil, nil)
	if filter(other) {
		t.Error("expected filter not to match h/foo")
	}
}

func TestBuildFilterNilWithNoPatterns(t *testing.T) {
	if buildFilter(nil) != nil {
		t.Error("expected nil filter with no patterns")
	}
}

func TestFatalErrClassifiesTargetKinds(t *testing.T) {
	helloErr := &target.Error{Target: "t", Kind: critbench.KindHelloFailed}
	if fatalErr(helloErr) {
		t.Error("HelloFailed should obey do_fail_fast, not be always-fatal")
	}

	cbErr := &critbench.Error{Kind: critbench.KindCompileFailed}
	if !fatalErr(cbErr) {
		t.Error("CompileFailed should always be fatal")
	}
}

func strPtr(s string) *string { return &s }
