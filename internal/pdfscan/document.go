// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfscan reads positioned words from the pages of a PDF document.
// It wraps github.com/ledongthuc/pdf, which reports text as per-glyph items
// in content-stream order with bottom-up Y coordinates; this package
// assembles glyphs into words and converts offsets to top-down form.
// Implements: prd001-scan (R1, R2);
//
//	docs/ARCHITECTURE.md § Scanning.
package pdfscan

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/tabex/pkg/types"
)

// Default word-assembly tolerances, in page units. Tuned to the CARES
// survival report layout (prd001-scan R1.1).
const (
	DefaultXTolerance = 2.0
	DefaultYTolerance = 2.0
)

// letterHeight is the fallback page height when a page carries no usable
// MediaBox (US Letter, 11in at 72 units/in).
const letterHeight = 792.0

// maxParentDepth bounds the MediaBox lookup's walk up the page tree.
// Malformed documents can declare a cyclic Parent chain.
const maxParentDepth = 10

// Document is an open PDF exposing page-level word extraction.
type Document struct {
	f   *os.File
	r   *pdf.Reader
	cfg types.ScanConfig
}

// Open opens the PDF at path. Zero tolerances in cfg are replaced with the
// package defaults. The underlying library panics on some malformed files,
// so parsing failures surface as errors here (prd001-scan R2.2).
func Open(path string, cfg types.ScanConfig) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("opening PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}

	if cfg.XTolerance <= 0 {
		cfg.XTolerance = DefaultXTolerance
	}
	if cfg.YTolerance <= 0 {
		cfg.YTolerance = DefaultYTolerance
	}

	return &Document{f: f, r: r, cfg: cfg}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.r.NumPage()
}

// Words extracts the positioned words of one page. Pages are one-based
// (prd001-scan R2.1). Out-of-range pages, missing page objects, and library
// panics on malformed content streams all surface as errors so a caller can
// isolate the failure to this page (R2.2).
func (d *Document) Words(pageNum int) (words []Word, err error) {
	defer func() {
		if r := recover(); r != nil {
			words, err = nil, fmt.Errorf("scanning page %d: %v", pageNum, r)
		}
	}()

	if pageNum < 1 || pageNum > d.r.NumPage() {
		return nil, fmt.Errorf("page %d out of range: document has %d pages", pageNum, d.r.NumPage())
	}

	p := d.r.Page(pageNum)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d has no page object", pageNum)
	}

	return assembleWords(p.Content().Text, pageHeight(p), d.cfg), nil
}

// pageHeight resolves the page's MediaBox height. MediaBox is inheritable,
// so the lookup walks up the page tree; the walk is depth-capped so a cyclic
// Parent chain terminates. Pages with no usable box fall back to US Letter.
func pageHeight(p pdf.Page) float64 {
	v := p.V
	for i := 0; i < maxParentDepth && !v.IsNull(); i++ {
		box := v.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return letterHeight
}
