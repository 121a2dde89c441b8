// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules classifies candidate table rows as genuine data or report
// noise (titles, footers, repeated headers, footnotes). The keyword lists
// are configuration, not code: report formats drift by source and revision,
// so rule sets load from YAML files with a built-in default tuned for CARES
// survival reports.
// Implements: prd003-validation (R1, R2);
//
//	docs/ARCHITECTURE.md § Validation.
package rules

import "strings"

// RuleSet holds the three keyword lists the validator matches rows against.
// Every entry is a case-insensitive substring rule; entries are stored
// lowercase (prd003-validation R1.3).
type RuleSet struct {
	// FootnotePrefixes reject a row when the row's joined text starts with
	// one of them. Catches explanatory notes printed under a table.
	FootnotePrefixes []string `json:"footnote_prefixes" yaml:"footnote_prefixes"`

	// BannedFragments reject a row when the joined text contains one of
	// them: page furniture, summary lines, titles, definitional text.
	BannedFragments []string `json:"banned_fragments" yaml:"banned_fragments"`

	// AllowKeywords accept a row when the joined text contains one of them,
	// before the sparsity rule runs. Category label rows are often sparse
	// but must survive.
	AllowKeywords []string `json:"allow_keywords" yaml:"allow_keywords"`
}

// Default returns the rule set tuned for CARES survival report tables
// (prd003-validation R1.1).
func Default() RuleSet {
	return RuleSet{
		FootnotePrefixes: []string{
			"inclusion criteria",
			"*bystander",
			"april",
		},
		BannedFragments: []string{
			"survival to",
			"total n",
			"rosc",
			"cpc",
			"admission",
			"discharge",
			"sample ems",
			"page",
			"report",
			"cares",
			"data definitions",
		},
		AllowKeywords: []string{
			"utstein",
			"location of arrest",
			"arrest witnessed",
			"bystander cpr",
			"cpr",
			"aed",
			"hypothermia",
			"neurological",
			"category",
			"initial arrest rhythm",
			"shockable",
		},
	}
}

// Keep reports whether row is a genuine data row. Pure function: no state,
// same row always classifies the same way. Checks run in strict order and
// the first match wins (prd003-validation R2):
//
//  1. footnote prefix on the joined text rejects
//  2. banned fragment anywhere in the joined text rejects
//  3. allow keyword anywhere in the joined text accepts
//  4. at most one non-empty cell rejects
//  5. otherwise accept
//
// A row carrying both a banned fragment and an allow keyword is rejected:
// step 2 runs first.
func (rs RuleSet) Keep(row []string) bool {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.ToLower(strings.TrimSpace(c))
	}
	joined := strings.Join(cells, " ")

	for _, p := range rs.FootnotePrefixes {
		if strings.HasPrefix(joined, p) {
			return false
		}
	}
	for _, f := range rs.BannedFragments {
		if strings.Contains(joined, f) {
			return false
		}
	}
	for _, k := range rs.AllowKeywords {
		if strings.Contains(joined, k) {
			return true
		}
	}

	populated := 0
	for _, c := range cells {
		if c != "" {
			populated++
		}
	}
	return populated > 1
}

// Normalize returns a copy with every entry lowercased and trimmed and
// empty entries dropped, the canonical form Keep matches against. Applied
// to rule sets loaded from files (prd003-validation R1.3).
func (rs RuleSet) Normalize() RuleSet {
	return RuleSet{
		FootnotePrefixes: normalizeList(rs.FootnotePrefixes),
		BannedFragments:  normalizeList(rs.BannedFragments),
		AllowKeywords:    normalizeList(rs.AllowKeywords),
	}
}

func normalizeList(entries []string) []string {
	var out []string
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
