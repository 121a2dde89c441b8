// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rows reconstructs table rows from positioned words.
// Implements: prd002-rows (R1);
//
//	docs/ARCHITECTURE.md § Row Assembly.
package rows

import (
	"math"
	"sort"

	"github.com/pdiddy/tabex/internal/pdfscan"
)

// DefaultResolution is the vertical rounding resolution for row grouping:
// one decimal place of the page's coordinate space (prd002-rows R1.1).
const DefaultResolution = 0.1

// Row is one candidate table row: the cell texts of all words sharing a
// rounded vertical offset, in reading order.
type Row []string

// Group collects words into candidate rows. Two words are in the same row
// iff their vertical offsets round to the same value at the given
// resolution: key equality, not proximity clustering, so baselines that
// jitter past the resolution split into separate rows (R1.1). Within a row
// the word insertion order is the column order; words are never re-sorted
// by horizontal offset (R1.2). Rows are returned in ascending vertical
// order, top of page first (R1.3). No words yields no rows.
func Group(words []pdfscan.Word, resolution float64) []Row {
	if resolution <= 0 {
		resolution = DefaultResolution
	}

	buckets := make(map[float64]Row)
	for _, w := range words {
		key := math.Round(w.Top/resolution) * resolution
		buckets[key] = append(buckets[key], w.Text)
	}

	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, buckets[k])
	}
	return rows
}
