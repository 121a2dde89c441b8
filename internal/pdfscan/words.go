// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfscan

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/tabex/pkg/types"
)

// Word is a positioned run of text on a page. Offsets are in the page's
// native coordinate space with Top measured downward from the page top, the
// convention the row extractor groups on.
type Word struct {
	// Text is the word's content. Whitespace glyphs inside a word are
	// preserved (prd001-scan R1.2).
	Text string

	// Top is the vertical offset of the word's highest glyph.
	Top float64

	// Left is the horizontal offset of the word's first glyph.
	Left float64

	// Width is the horizontal extent of the word.
	Width float64
}

// wordBuilder accumulates glyphs for the word currently being assembled.
type wordBuilder struct {
	text strings.Builder
	top  float64
	left float64
	endX float64
}

func (b *wordBuilder) word() Word {
	return Word{
		Text:  b.text.String(),
		Top:   b.top,
		Left:  b.left,
		Width: b.endX - b.left,
	}
}

// assembleWords merges per-glyph text items into words. A glyph joins the
// current word when it sits on the same baseline (vertical difference within
// YTolerance) and starts within XTolerance of where the previous glyph ended;
// otherwise it begins a new word. Glyph order is the content-stream reading
// flow and is never re-sorted (prd001-scan R1.3). Glyphs with no text or
// non-finite coordinates are discarded (R1.5). Y coordinates grow bottom-up
// in PDF space; tops are computed as pageHeight minus Y (R1.4).
func assembleWords(glyphs []pdf.Text, pageHeight float64, cfg types.ScanConfig) []Word {
	var words []Word
	var cur *wordBuilder

	flush := func() {
		if cur != nil {
			words = append(words, cur.word())
			cur = nil
		}
	}

	for _, g := range glyphs {
		if g.S == "" || !finite(g.X) || !finite(g.Y) || !finite(g.W) {
			continue
		}
		top := pageHeight - g.Y

		if cur != nil {
			gap := g.X - cur.endX
			if math.Abs(top-cur.top) <= cfg.YTolerance && gap <= cfg.XTolerance && gap >= -cfg.XTolerance {
				cur.text.WriteString(g.S)
				if top < cur.top {
					cur.top = top
				}
				if end := g.X + g.W; end > cur.endX {
					cur.endX = end
				}
				continue
			}
			flush()
		}

		cur = &wordBuilder{top: top, left: g.X, endX: g.X + g.W}
		cur.text.WriteString(g.S)
	}
	flush()

	return words
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
