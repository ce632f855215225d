// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "testing"

func TestFuzzyFilterRanksSubsequenceMatches(t *testing.T) {
	f := newFuzzyFilter()
	candidates := []string{"/a/b/config.yaml", "/a/b/connection.go", "/x/y/z", "/readme.md"}

	matches := f.Filter(candidates, "cnfg")
	if len(matches) == 0 {
		t.Fatalf("expected at least one match for %q", "cnfg")
	}
	found := false
	for _, m := range matches {
		if m.Path == "/a/b/config.yaml" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected config.yaml to match subsequence query, got %+v", matches)
	}
}

func TestFuzzyFilterEmptyQueryMatchesAll(t *testing.T) {
	f := newFuzzyFilter()
	candidates := []string{"/a", "/b", "/c"}
	matches := f.Filter(candidates, "")
	if len(matches) != len(candidates) {
		t.Errorf("empty query returned %d matches, want %d", len(matches), len(candidates))
	}
}

func TestFuzzyFilterNoMatch(t *testing.T) {
	f := newFuzzyFilter()
	matches := f.Filter([]string{"/a/b/c"}, "zzz_not_present")
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %+v", matches)
	}
}
