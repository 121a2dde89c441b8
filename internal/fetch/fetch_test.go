// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/tabex/internal/httputil"
	"github.com/pdiddy/tabex/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake report body"

func init() {
	// Keep retry backoff out of test runtime.
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		arg  string
		want bool
	}{
		{"https://example.org/report.pdf", true},
		{"http://example.org/report.pdf", true},
		{"reports/cares-2023.pdf", false},
		{"/var/data/report.pdf", false},
		{"ftp://example.org/report.pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.arg); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestFetchReportDownloads(t *testing.T) {
	var gotAccept, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(fakePDFContent))
	}))
	defer ts.Close()

	dir := t.TempDir()
	path, err := FetchReport(context.Background(), ts.Client(),
		ts.URL+"/reports/cares-2023.pdf", dir, types.FetchConfig{UserAgent: "tabex-test/1.0"})
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}

	if want := filepath.Join(dir, "cares-2023.pdf"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("downloaded content = %q", data)
	}
	if gotAccept != "application/pdf" {
		t.Errorf("Accept header = %q, want application/pdf", gotAccept)
	}
	if gotAgent != "tabex-test/1.0" {
		t.Errorf("User-Agent header = %q", gotAgent)
	}
}

func TestFetchReportDefaultUserAgent(t *testing.T) {
	var gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(fakePDFContent))
	}))
	defer ts.Close()

	if _, err := FetchReport(context.Background(), ts.Client(),
		ts.URL+"/r.pdf", t.TempDir(), types.FetchConfig{}); err != nil {
		t.Fatalf("FetchReport: %v", err)
	}
	if !strings.HasPrefix(gotAgent, "tabex/") {
		t.Errorf("User-Agent = %q, want tabex default", gotAgent)
	}
}

func TestFetchReportFilenames(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(fakePDFContent))
	}))
	defer ts.Close()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"pdf suffix kept", "/reports/annual-2023.pdf", "annual-2023.pdf"},
		{"suffix added", "/reports/annual-2023", "annual-2023.pdf"},
		{"query string ignored", "/reports/cares.pdf?v=2", "cares.pdf"},
		{"bare host falls back", "/", "report.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			got, err := FetchReport(context.Background(), ts.Client(),
				ts.URL+tt.path, dir, types.FetchConfig{})
			if err != nil {
				t.Fatalf("FetchReport: %v", err)
			}
			if want := filepath.Join(dir, tt.want); got != want {
				t.Errorf("path = %q, want %q", got, want)
			}
			if _, err := os.Stat(got); err != nil {
				t.Errorf("download missing: %v", err)
			}
		})
	}
}

func TestFetchReportHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := FetchReport(context.Background(), ts.Client(),
		ts.URL+"/missing.pdf", t.TempDir(), types.FetchConfig{})
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") {
		t.Fatalf("err = %v, want HTTP 404 error", err)
	}
}

func TestFetchReportRetriesRateLimit(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(fakePDFContent))
	}))
	defer ts.Close()

	path, err := FetchReport(context.Background(), ts.Client(),
		ts.URL+"/busy.pdf", t.TempDir(), types.FetchConfig{MaxRetries: 2})
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server saw %d calls, want 2", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("downloaded content = %q", data)
	}
}

func TestFetchReportNoTempLeftovers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	dir := t.TempDir()
	if _, err := FetchReport(context.Background(), ts.Client(),
		ts.URL+"/r.pdf", dir, types.FetchConfig{}); err == nil {
		t.Fatal("expected error for HTTP 500")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("download dir not empty after failure: %v", entries)
	}
}
