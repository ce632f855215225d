// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sort"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fuzzyFilter ranks a set of filesystem paths against a query using
// fzf's own matching algorithm, the same package the CLI itself uses
// to score candidates. A *util.Slab is reused across calls so the
// matcher doesn't reallocate its scratch buffers for every keystroke.
type fuzzyFilter struct {
	slab *util.Slab
}

func newFuzzyFilter() *fuzzyFilter {
	return &fuzzyFilter{slab: util.MakeSlab(100*1024, 2048)}
}

// fuzzyMatch holds one path that matched the current query, along
// with the score fzf's algorithm assigned it.
type fuzzyMatch struct {
	Path  string
	Score int
}

// Filter scores every candidate against query and returns the ones
// that matched, sorted best-score-first. An empty query matches
// everything with a zero score, preserving input order.
func (f *fuzzyFilter) Filter(candidates []string, query string) []fuzzyMatch {
	if query == "" {
		out := make([]fuzzyMatch, len(candidates))
		for i, c := range candidates {
			out[i] = fuzzyMatch{Path: c}
		}
		return out
	}

	pattern := []rune(query)
	var matches []fuzzyMatch
	for _, candidate := range candidates {
		chars := util.RunesToChars([]rune(candidate))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, f.slab)
		if result.Start < 0 {
			continue
		}
		matches = append(matches, fuzzyMatch{Path: candidate, Score: int(result.Score)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
