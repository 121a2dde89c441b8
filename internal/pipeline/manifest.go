// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tabex/pkg/types"
)

// Manifest is the YAML run record written alongside the CSV outputs. It
// captures the request parameters and the per-page outcomes so a run can
// be audited without the catalog (R5.1).
type Manifest struct {
	PDFPath   string             `yaml:"pdf_path"`
	SourceURL string             `yaml:"source_url,omitempty"`
	Timestamp string             `yaml:"timestamp"`
	Scan      types.ScanConfig   `yaml:"scan"`
	Pages     []types.PageReport `yaml:"pages"`
}

// WriteManifest writes run_<timestamp>.yaml into the output directory.
func WriteManifest(req types.RunRequest, pages []types.PageReport) error {
	m := Manifest{
		PDFPath:   req.PDFPath,
		SourceURL: req.SourceURL,
		Timestamp: req.Timestamp,
		Scan:      req.Scan,
		Pages:     pages,
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	name := fmt.Sprintf("run_%s.yaml", req.Timestamp)
	return os.WriteFile(filepath.Join(req.OutputDir, name), data, 0o644)
}
