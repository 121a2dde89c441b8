// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists extraction run history in a SQLite database.
// Implements: prd005-catalog (R1-R3);
//
//	docs/ARCHITECTURE.md § Run Catalog.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tabex/pkg/types"
)

const defaultDBPath = "catalog/tabex.db"

// Store manages the run catalog SQLite database.
type Store struct {
	db *sql.DB
}

// RunRecord summarizes one recorded extraction run.
type RunRecord struct {
	ID        int64
	Timestamp string
	PDFPath   string
	SourceURL string
	OutputDir string
	Requested int
	Saved     int
	Failed    int
	CreatedAt time.Time
}

// Open opens or creates the catalog database at cfg.Path, creating the
// parent directory and the schema as needed (R1.1, R1.2).
func Open(cfg types.CatalogConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			pdf_path TEXT NOT NULL,
			source_url TEXT,
			output_dir TEXT,
			pages_requested INTEGER NOT NULL,
			pages_saved INTEGER NOT NULL,
			pages_failed INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			page INTEGER NOT NULL,
			headers TEXT,
			output_file TEXT,
			rows_scanned INTEGER,
			rows_kept INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_pages_run_id ON run_pages(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores the run parameters and every page outcome in one
// transaction, returning the new run's id (R2.1, R2.2).
func (s *Store) RecordRun(ctx context.Context, req types.RunRequest, pages []types.PageReport) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var saved, failed int
	for _, p := range pages {
		if p.Failed() {
			failed++
		} else {
			saved++
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (timestamp, pdf_path, source_url, output_dir,
			pages_requested, pages_saved, pages_failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Timestamp, req.PDFPath, req.SourceURL, req.OutputDir,
		len(pages), saved, failed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_pages (run_id, page, headers, output_file,
			rows_scanned, rows_kept, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		headersJSON, _ := json.Marshal(p.Headers)
		_, err := stmt.ExecContext(ctx,
			runID, p.Page, string(headersJSON), p.OutputFile,
			p.RowsScanned, p.RowsKept, p.Error,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting page %d: %w", p.Page, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Recent returns the most recent runs, newest first. A non-positive
// limit defaults to 20 (R3.1).
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, pdf_path, source_url, output_dir,
			pages_requested, pages_saved, pages_failed, created_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Run returns one recorded run and its page outcomes (R3.2).
func (s *Store) Run(ctx context.Context, id int64) (RunRecord, []types.PageReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, pdf_path, source_url, output_dir,
			pages_requested, pages_saved, pages_failed, created_at
		 FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return RunRecord{}, nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return RunRecord{}, nil, err
	}

	pages, err := s.Pages(ctx, id)
	if err != nil {
		return RunRecord{}, nil, err
	}
	return rec, pages, nil
}

// Pages returns the page outcomes of a run in processing order.
func (s *Store) Pages(ctx context.Context, runID int64) ([]types.PageReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page, headers, output_file, rows_scanned, rows_kept, error
		 FROM run_pages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run pages: %w", err)
	}
	defer rows.Close()

	var pages []types.PageReport
	for rows.Next() {
		var p types.PageReport
		var headersJSON sql.NullString
		if err := rows.Scan(&p.Page, &headersJSON, &p.OutputFile,
			&p.RowsScanned, &p.RowsKept, &p.Error); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		if headersJSON.Valid {
			json.Unmarshal([]byte(headersJSON.String), &p.Headers)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// scanRun reads one runs row through the given Scan function, so it
// serves both sql.Row and sql.Rows.
func scanRun(scan func(...any) error) (RunRecord, error) {
	var r RunRecord
	var createdAt string
	err := scan(&r.ID, &r.Timestamp, &r.PDFPath, &r.SourceURL, &r.OutputDir,
		&r.Requested, &r.Saved, &r.Failed, &createdAt)
	if err == sql.ErrNoRows {
		return RunRecord{}, err
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("scanning run row: %w", err)
	}
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		r.CreatedAt = t
	}
	return r, nil
}
