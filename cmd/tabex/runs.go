package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tabex/internal/catalog"
	"github.com/pdiddy/tabex/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse recorded extraction runs",
	Long: `Runs reads the catalog database that extract writes to. With no
subcommand it lists recent runs, newest first; use show for one run's
per-page outcomes.`,
	RunE: runRunsList,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent extraction runs, newest first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-17s  %-6s  %-6s  %s\n",
		"ID", "Timestamp", "Saved", "Failed", "PDF")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))

	for _, r := range records {
		pdf := r.PDFPath
		if len(pdf) > 32 {
			pdf = pdf[:29] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-17s  %-6d  %-6d  %s\n",
			r.ID, r.Timestamp, r.Saved, r.Failed, pdf)
	}

	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(records))
	return nil
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one recorded run with its page outcomes",
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one run id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, pages, err := store.Run(context.Background(), id)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Run   catalog.RunRecord  `json:"run"`
			Pages []types.PageReport `json:"pages"`
		}{rec, pages})
	}

	fmt.Fprintf(os.Stdout, "run %d: %s\n", rec.ID, rec.Timestamp)
	fmt.Fprintf(os.Stdout, "  pdf:    %s\n", rec.PDFPath)
	if rec.SourceURL != "" {
		fmt.Fprintf(os.Stdout, "  source: %s\n", rec.SourceURL)
	}
	fmt.Fprintf(os.Stdout, "  output: %s\n", rec.OutputDir)
	fmt.Fprintf(os.Stdout, "  pages:  %d requested, %d saved, %d failed\n\n",
		rec.Requested, rec.Saved, rec.Failed)

	for _, p := range pages {
		if p.Failed() {
			fmt.Fprintf(os.Stdout, "  page %d: failed (%s)\n", p.Page, p.Error)
			continue
		}
		fmt.Fprintf(os.Stdout, "  page %d: kept %d of %d rows, wrote %s\n",
			p.Page, p.RowsKept, p.RowsScanned, p.OutputFile)
	}
	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	return catalog.Open(types.CatalogConfig{
		Path: stringSetting(cmd, "catalog", "catalog.path"),
	})
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	runsCmd.PersistentFlags().String("catalog", "", "catalog database path (default catalog/tabex.db)")

	// "tabex runs" and "tabex runs list" take the same listing flags.
	for _, c := range []*cobra.Command{runsCmd, runsListCmd} {
		c.Flags().Int("limit", 0, "maximum runs to list (0 = default 20)")
		c.Flags().Bool("json", false, "output as JSON")
	}
	runsShowCmd.Flags().Bool("json", false, "output as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	rootCmd.AddCommand(runsCmd)
}
