// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote report PDFs to local files.
// Implements: prd006-fetch (R1-R3);
//
//	docs/ARCHITECTURE.md § Remote Fetch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/tabex/internal/httputil"
	"github.com/pdiddy/tabex/pkg/types"
)

const defaultUserAgent = "tabex/0.1 (report table extraction)"

// IsURL reports whether the argument names a remote report rather than
// a local file.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// FetchReport downloads the report at rawURL into destDir and returns
// the local path. The filename derives from the URL path, always with a
// .pdf suffix. The download goes to a temporary file first and renames
// on success (R2.1); rate-limited responses are retried (R3.1).
func FetchReport(ctx context.Context, client *http.Client, rawURL, destDir string, cfg types.FetchConfig) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory %s: %w", destDir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	destPath := filepath.Join(destDir, filename(rawURL))

	tmp, err := os.CreateTemp(destDir, ".fetch-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// filename derives the local filename from the URL path, ignoring any
// query string. Unusable paths fall back to report.pdf.
func filename(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if base != "." && base != "/" && base != "" {
			if !strings.HasSuffix(strings.ToLower(base), ".pdf") {
				base += ".pdf"
			}
			return base
		}
	}
	return "report.pdf"
}
