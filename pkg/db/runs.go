package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/report"
)

// ErrNoRuns is returned by LatestRunID on an empty history.
var ErrNoRuns = errors.New("no runs recorded")

// RunRecord is the input to InsertRun: a finished report and where it was written.
// Hashes maps artifact path to content fingerprint; missing paths are stored as NULL.
type RunRecord struct {
	Dest   string
	Report *report.Report
	Hashes map[string]string
}

// Run represents a recorded measuring run
type Run struct {
	RunID      int64
	CreatedAt  time.Time
	Dest       string
	FileCount  int
	Totals     budget.Totals
	Budget     budget.Budget
	OverBudget bool
}

// Remaining is the budget headroom the run ended with.
func (r Run) Remaining() budget.RemainingBudget {
	return budget.Remaining(r.Budget, r.Totals)
}

// RunCategory is one category rollup of a run.
type RunCategory struct {
	Category   string
	TotalSize  int64
	FileCount  int
	Percentage int
}

// RunFile is one recorded artifact of a run.
type RunFile struct {
	Position    int
	Category    string
	Path        string
	SizeBytes   int64
	ContentHash sql.NullString
}

// InsertRun stores a run with its categories and files in one transaction.
func (db *DB) InsertRun(rec RunRecord) (int64, error) {
	if rec.Report == nil {
		return 0, fmt.Errorf("run record has no report")
	}
	r := rec.Report

	var b budget.Budget
	if r.Budget != nil {
		b = *r.Budget
	}
	overBudget := r.RemainingBudget != nil && len(r.RemainingBudget.Overruns()) > 0

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // No-op after commit

	result, err := tx.Exec(`
		INSERT INTO runs (
			dest, file_count,
			total_size, css_size, images_size, js_size, fonts_size,
			budget_total, budget_css, budget_images, budget_js, budget_fonts,
			over_budget
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Dest, r.FileCount(),
		r.TotalSizes.TotalSize, r.TotalSizes.CSS, r.TotalSizes.Images, r.TotalSizes.JS, r.TotalSizes.Fonts,
		b.Total, b.CSS, b.Images, b.JS, b.Fonts,
		overBudget,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, category := range r.Categories() {
		ft := r.FileTypes[category]
		if _, err := tx.Exec(`
			INSERT INTO run_categories (run_id, category, total_size, file_count, percentage)
			VALUES (?, ?, ?, ?, ?)
		`, runID, category, ft.Total, len(ft.Files), ft.Percentage); err != nil {
			return 0, fmt.Errorf("failed to insert category %s: %w", category, err)
		}

		for i, f := range ft.Files {
			hash, ok := rec.Hashes[f.File]
			if _, err := tx.Exec(`
				INSERT INTO run_files (run_id, position, category, path, size_bytes, content_hash)
				VALUES (?, ?, ?, ?, ?, ?)
			`, runID, i, category, f.File, f.Size, NewNullString(hash, ok)); err != nil {
				return 0, fmt.Errorf("failed to insert file %s: %w", f.File, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `
	run_id, created_at, dest, file_count,
	total_size, css_size, images_size, js_size, fonts_size,
	budget_total, budget_css, budget_images, budget_js, budget_fonts,
	over_budget`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.RunID, &r.CreatedAt, &r.Dest, &r.FileCount,
		&r.Totals.TotalSize, &r.Totals.CSS, &r.Totals.Images, &r.Totals.JS, &r.Totals.Fonts,
		&r.Budget.Total, &r.Budget.CSS, &r.Budget.Images, &r.Budget.JS, &r.Budget.Fonts,
		&r.OverBudget,
	)
	return r, err
}

// ListRuns returns the most recent runs first. A limit of 0 returns all runs.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT` + runColumns + `
		FROM runs
		ORDER BY run_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(runID int64) (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT`+runColumns+`
		FROM runs
		WHERE run_id = ?
	`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// GetRunCategories returns the category rollups of a run, sorted by category.
func (db *DB) GetRunCategories(runID int64) ([]RunCategory, error) {
	rows, err := db.Query(`
		SELECT category, total_size, file_count, percentage
		FROM run_categories
		WHERE run_id = ?
		ORDER BY category
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run categories: %w", err)
	}
	defer rows.Close()

	var categories []RunCategory
	for rows.Next() {
		var c RunCategory
		if err := rows.Scan(&c.Category, &c.TotalSize, &c.FileCount, &c.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetRunFiles returns the files of a run grouped by category, in arrival order.
func (db *DB) GetRunFiles(runID int64) ([]RunFile, error) {
	rows, err := db.Query(`
		SELECT position, category, path, size_bytes, content_hash
		FROM run_files
		WHERE run_id = ?
		ORDER BY category, position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run files: %w", err)
	}
	defer rows.Close()

	var files []RunFile
	for rows.Next() {
		var f RunFile
		if err := rows.Scan(&f.Position, &f.Category, &f.Path, &f.SizeBytes, &f.ContentHash); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// LatestRunID returns the ID of the most recent run, or ErrNoRuns.
func (db *DB) LatestRunID() (int64, error) {
	var runID int64
	err := db.QueryRow("SELECT run_id FROM runs ORDER BY run_id DESC LIMIT 1").Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoRuns
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}

// NewNullString wraps s as a nullable column value.
func NewNullString(s string, valid bool) sql.NullString {
	return sql.NullString{String: s, Valid: valid && s != ""}
}
