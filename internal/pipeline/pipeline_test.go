// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// End-to-end pipeline tests using an in-memory word source: requested
// pages flow through row grouping, validation, and CSV output without
// touching a real PDF.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tabex/internal/pdfscan"
	"github.com/pdiddy/tabex/internal/rules"
	"github.com/pdiddy/tabex/pkg/types"
)

// fakeSource serves canned words per page, with optional per-page errors.
type fakeSource struct {
	count int
	pages map[int][]pdfscan.Word
	errs  map[int]error
}

func (s *fakeSource) PageCount() int { return s.count }

func (s *fakeSource) Words(page int) ([]pdfscan.Word, error) {
	if err := s.errs[page]; err != nil {
		return nil, err
	}
	return s.pages[page], nil
}

func word(text string, top, left float64) pdfscan.Word {
	return pdfscan.Word{Text: text, Top: top, Left: left, Width: 10}
}

func testRequest(t *testing.T, dir string, pages []int, headers [][]string) types.RunRequest {
	t.Helper()
	req, err := types.NewRunRequest("report.pdf", pages, headers)
	if err != nil {
		t.Fatalf("NewRunRequest: %v", err)
	}
	req.OutputDir = dir
	req.Timestamp = "2024-05-01_09-30"
	req.Scan = types.ScanConfig{XTolerance: 2, YTolerance: 2, RowResolution: 0.1}
	return req
}

func TestRunTwoPages(t *testing.T) {
	src := &fakeSource{
		count: 2,
		pages: map[int][]pdfscan.Word{
			1: {
				word("Witnessed", 100, 50),
				word("Yes", 100, 150),
				word("42%", 100, 250),
				word("survival to discharge", 120, 50),
				word("12%", 120, 150),
				word("Utstein", 140, 50),
			},
			2: {
				word("Home/Residence", 80, 50),
				word("61.2%", 80, 200),
			},
		},
	}

	dir := filepath.Join(t.TempDir(), "out")
	req := testRequest(t, dir, []int{1, 2}, [][]string{
		{"Measure", "Value", "Percent"},
		{"Location", "Share"},
	})

	var buf bytes.Buffer
	result, err := Run(context.Background(), src, req, rules.Default(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Saved != 2 {
		t.Errorf("Saved = %d, want 2", result.Saved)
	}
	if result.Failed != 0 {
		t.Errorf("Failed = %d, want 0", result.Failed)
	}
	if result.HasFailures() {
		t.Error("HasFailures() = true, want false")
	}

	// Page 1: the banned row is dropped, the sparse allow-keyword row
	// survives padded to three columns.
	got := readTestFile(t, filepath.Join(dir, "page_1_cleaned_2024-05-01_09-30.csv"))
	want := "Measure,Value,Percent\nWitnessed,Yes,42%\nUtstein,,\n"
	if got != want {
		t.Errorf("page 1 CSV:\ngot  %q\nwant %q", got, want)
	}

	got = readTestFile(t, filepath.Join(dir, "page_2_cleaned_2024-05-01_09-30.csv"))
	want = "Location,Share\nHome/Residence,61.2%\n"
	if got != want {
		t.Errorf("page 2 CSV:\ngot  %q\nwant %q", got, want)
	}

	if rep := result.Pages[0]; rep.RowsScanned != 3 || rep.RowsKept != 2 {
		t.Errorf("page 1 report: scanned %d kept %d, want 3 and 2", rep.RowsScanned, rep.RowsKept)
	}

	out := buf.String()
	if !strings.Contains(out, "saved:  page_1_cleaned_2024-05-01_09-30.csv (2 rows)") {
		t.Errorf("output missing page 1 status line:\n%s", out)
	}
	if !strings.Contains(out, "Run summary: 2 saved, 0 failed (total: 2)") {
		t.Errorf("output missing run summary:\n%s", out)
	}
}

func TestRunPageFailureIsolation(t *testing.T) {
	src := &fakeSource{
		count: 2,
		pages: map[int][]pdfscan.Word{
			1: {word("Witnessed", 100, 50), word("Yes", 100, 150)},
		},
		errs: map[int]error{
			2: errors.New("damaged content stream"),
		},
	}

	dir := t.TempDir()
	req := testRequest(t, dir, []int{1, 2, 7}, [][]string{
		{"Measure", "Value"},
		{"Measure", "Value"},
		{"Measure", "Value"},
	})

	var buf bytes.Buffer
	result, err := Run(context.Background(), src, req, rules.Default(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Saved != 1 {
		t.Errorf("Saved = %d, want 1", result.Saved)
	}
	if result.Failed != 2 {
		t.Errorf("Failed = %d, want 2", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}

	if rep := result.Pages[1]; rep.Error != "damaged content stream" {
		t.Errorf("page 2 error = %q, want %q", rep.Error, "damaged content stream")
	}
	if rep := result.Pages[2]; !rep.Failed() || !strings.Contains(rep.Error, "out of range") {
		t.Errorf("page 7 report = %+v, want out-of-range failure", rep)
	}

	if _, err := os.Stat(filepath.Join(dir, "page_1_cleaned_2024-05-01_09-30.csv")); err != nil {
		t.Errorf("page 1 CSV missing: %v", err)
	}
	for _, n := range []int{2, 7} {
		name := fmt.Sprintf("page_%d_cleaned_2024-05-01_09-30.csv", n)
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			t.Errorf("unexpected CSV for failed page %d", n)
		}
	}

	out := buf.String()
	if !strings.Contains(out, "failed: page 2 (damaged content stream)") {
		t.Errorf("output missing page 2 failure line:\n%s", out)
	}
	if !strings.Contains(out, "failed: page 7 (page 7 out of range: document has 2 pages)") {
		t.Errorf("output missing page 7 failure line:\n%s", out)
	}
	if !strings.Contains(out, "Run summary: 1 saved, 2 failed (total: 3)") {
		t.Errorf("output missing run summary:\n%s", out)
	}
}

func TestRunEmptyPageWritesHeaderOnly(t *testing.T) {
	src := &fakeSource{count: 1, pages: map[int][]pdfscan.Word{1: nil}}

	dir := t.TempDir()
	req := testRequest(t, dir, []int{1}, [][]string{{"Metric", "Value"}})

	var buf bytes.Buffer
	result, err := Run(context.Background(), src, req, rules.Default(), &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Saved != 1 {
		t.Errorf("Saved = %d, want 1", result.Saved)
	}
	got := readTestFile(t, filepath.Join(dir, "page_1_cleaned_2024-05-01_09-30.csv"))
	if want := "Metric,Value\n"; got != want {
		t.Errorf("CSV = %q, want header only %q", got, want)
	}
	if rep := result.Pages[0]; rep.RowsScanned != 0 || rep.RowsKept != 0 {
		t.Errorf("report: scanned %d kept %d, want 0 and 0", rep.RowsScanned, rep.RowsKept)
	}
}

func TestRunOverflowFoldsIntoLastColumn(t *testing.T) {
	src := &fakeSource{
		count: 1,
		pages: map[int][]pdfscan.Word{
			1: {
				word("Rhythm", 100, 50),
				word("VF", 100, 150),
				word("VT", 100, 250),
				word("Asystole", 100, 350),
			},
		},
	}

	dir := t.TempDir()
	req := testRequest(t, dir, []int{1}, [][]string{{"Category", "Detail"}})

	var buf bytes.Buffer
	if _, err := Run(context.Background(), src, req, rules.Default(), &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := readTestFile(t, filepath.Join(dir, "page_1_cleaned_2024-05-01_09-30.csv"))
	want := "Category,Detail\nRhythm,VF VT Asystole\n"
	if got != want {
		t.Errorf("CSV:\ngot  %q\nwant %q", got, want)
	}
}

func TestRunWritesManifest(t *testing.T) {
	src := &fakeSource{
		count: 1,
		pages: map[int][]pdfscan.Word{
			1: {word("Witnessed", 100, 50), word("Yes", 100, 150)},
		},
	}

	dir := t.TempDir()
	req := testRequest(t, dir, []int{1}, [][]string{{"Measure", "Value"}})
	req.SourceURL = "https://example.org/cares-2023.pdf"

	var buf bytes.Buffer
	if _, err := Run(context.Background(), src, req, rules.Default(), &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run_2024-05-01_09-30.yaml"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("parsing manifest YAML: %v", err)
	}
	if m.PDFPath != "report.pdf" {
		t.Errorf("manifest PDFPath = %q, want %q", m.PDFPath, "report.pdf")
	}
	if m.SourceURL != "https://example.org/cares-2023.pdf" {
		t.Errorf("manifest SourceURL = %q", m.SourceURL)
	}
	if m.Timestamp != "2024-05-01_09-30" {
		t.Errorf("manifest Timestamp = %q", m.Timestamp)
	}
	if len(m.Pages) != 1 {
		t.Fatalf("manifest has %d pages, want 1", len(m.Pages))
	}
	if m.Pages[0].RowsKept != 1 {
		t.Errorf("manifest page RowsKept = %d, want 1", m.Pages[0].RowsKept)
	}
}

func TestRunCanceledContext(t *testing.T) {
	src := &fakeSource{count: 1, pages: map[int][]pdfscan.Word{
		1: {word("Witnessed", 100, 50)},
	}}

	dir := t.TempDir()
	req := testRequest(t, dir, []int{1}, [][]string{{"Measure", "Value"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	result, err := Run(ctx, src, req, rules.Default(), &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if result.Total() != 0 {
		t.Errorf("Total() = %d, want 0 after immediate cancel", result.Total())
	}
	if _, err := os.Stat(filepath.Join(dir, "page_1_cleaned_2024-05-01_09-30.csv")); err == nil {
		t.Error("CSV written despite canceled context")
	}
}

// --- helpers ---

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
