package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tabex/internal/catalog"
	"github.com/pdiddy/tabex/internal/fetch"
	"github.com/pdiddy/tabex/internal/pdfscan"
	"github.com/pdiddy/tabex/internal/pipeline"
	"github.com/pdiddy/tabex/internal/rules"
	"github.com/pdiddy/tabex/pkg/types"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultDownloadDir = "reports"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract table rows from PDF pages into per-page CSV files",
	Long: `Extract reconstructs table rows from the requested pages and writes one
cleaned CSV file per page, named page_<n>_cleaned_<timestamp>.csv.

Each --headers occurrence is a comma-separated column list for the
matching --pages entry, in order:

  tabex extract --pdf report.pdf --pages 3,5 \
      --headers "Measure,Value,Percent" --headers "Location,Share"

The PDF may also be an http(s) URL; the report is downloaded first.
Pages that fail are reported and skipped, and the run is recorded in
the catalog unless --no-catalog is given.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("pdf", "", "PDF file path or http(s) URL (required)")
	extractCmd.Flags().IntSlice("pages", nil, "one-based page numbers to extract (required)")
	extractCmd.Flags().StringArray("headers", nil, "comma-separated column headers, once per page (required)")
	extractCmd.Flags().String("rules", "", "YAML rule-set file (default: built-in rules)")
	extractCmd.Flags().String("output-dir", ".", "directory for CSV files and the run manifest")
	extractCmd.Flags().Float64("x-tolerance", 0, "horizontal glyph merge tolerance in points (default 2)")
	extractCmd.Flags().Float64("y-tolerance", 0, "vertical glyph merge tolerance in points (default 2)")
	extractCmd.Flags().Float64("row-resolution", 0, "vertical rounding resolution for row grouping (default 0.1)")
	extractCmd.Flags().String("download-dir", "", "directory for fetched remote reports (default reports)")
	extractCmd.Flags().Duration("timeout", 0, "HTTP request timeout for remote reports (default 60s)")
	extractCmd.Flags().Int("max-retries", 0, "retry attempts on rate-limited downloads (default 4)")
	extractCmd.Flags().String("catalog", "", "catalog database path (default catalog/tabex.db)")
	extractCmd.Flags().Bool("no-catalog", false, "do not record this run in the catalog")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	pdfArg, _ := cmd.Flags().GetString("pdf")
	pages, _ := cmd.Flags().GetIntSlice("pages")
	headerArgs, _ := cmd.Flags().GetStringArray("headers")

	headerSets := make([][]string, 0, len(headerArgs))
	for _, h := range headerArgs {
		headerSets = append(headerSets, splitHeaders(h))
	}

	// All request validation happens before the PDF is touched.
	req, err := types.NewRunRequest(pdfArg, pages, headerSets)
	if err != nil {
		return err
	}
	req.Timestamp = time.Now().Format(types.TimestampFormat)
	req.OutputDir = stringSetting(cmd, "output-dir", "output.dir")
	req.Scan = types.ScanConfig{
		XTolerance:    floatSetting(cmd, "x-tolerance", "scan.x_tolerance"),
		YTolerance:    floatSetting(cmd, "y-tolerance", "scan.y_tolerance"),
		RowResolution: floatSetting(cmd, "row-resolution", "scan.row_resolution"),
	}

	rs := rules.Default()
	if rulesFile := stringSetting(cmd, "rules", "validation.rules_file"); rulesFile != "" {
		rs, err = rules.ReadFile(rulesFile)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()

	// Remote reports are downloaded before opening.
	if fetch.IsURL(req.PDFPath) {
		fcfg := fetchConfig(cmd)
		client := &http.Client{Timeout: fcfg.Timeout}

		fmt.Fprintf(os.Stdout, "fetching: %s\n", req.PDFPath)
		local, err := fetch.FetchReport(ctx, client, req.PDFPath, fcfg.DownloadDir, fcfg)
		if err != nil {
			return fmt.Errorf("fetching report: %w", err)
		}
		req.SourceURL = req.PDFPath
		req.PDFPath = local
	}

	doc, err := pdfscan.Open(req.PDFPath, req.Scan)
	if err != nil {
		return err
	}
	defer doc.Close()

	result, err := pipeline.Run(ctx, doc, req, rs, os.Stdout)
	if err != nil {
		return err
	}

	recordRun(ctx, cmd, req, result)

	if result.HasFailures() {
		return fmt.Errorf("%d page(s) failed extraction", result.Failed)
	}
	return nil
}

// recordRun stores the run in the catalog. Catalog problems never fail
// an extraction that already produced its files.
func recordRun(ctx context.Context, cmd *cobra.Command, req types.RunRequest, result pipeline.Result) {
	if noCatalog, _ := cmd.Flags().GetBool("no-catalog"); noCatalog || viper.GetBool("catalog.disabled") {
		return
	}

	store, err := catalog.Open(types.CatalogConfig{
		Path: stringSetting(cmd, "catalog", "catalog.path"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: catalog unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if _, err := store.RecordRun(ctx, req, result.Pages); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run: %v\n", err)
	}
}

func fetchConfig(cmd *cobra.Command) types.FetchConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if !cmd.Flags().Changed("timeout") && viper.IsSet("fetch.timeout") {
		timeout = viper.GetDuration("fetch.timeout")
	}
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	if !cmd.Flags().Changed("max-retries") && viper.IsSet("fetch.max_retries") {
		maxRetries = viper.GetInt("fetch.max_retries")
	}

	downloadDir := stringSetting(cmd, "download-dir", "fetch.download_dir")
	if downloadDir == "" {
		downloadDir = defaultDownloadDir
	}

	return types.FetchConfig{
		Timeout:     timeout,
		UserAgent:   viper.GetString("fetch.user_agent"),
		MaxRetries:  maxRetries,
		DownloadDir: downloadDir,
	}
}

// splitHeaders turns one comma-separated --headers value into a column
// list, trimming whitespace around each name.
func splitHeaders(arg string) []string {
	parts := strings.Split(arg, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// stringSetting resolves a string option: an explicitly set flag wins,
// then the config file, then the flag default.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	v, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	return v
}

// floatSetting resolves a float option with the same precedence as
// stringSetting.
func floatSetting(cmd *cobra.Command, flag, key string) float64 {
	v, _ := cmd.Flags().GetFloat64(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return v
}
