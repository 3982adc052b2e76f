// Package history keeps a local SQLite record of committed searches and
// submitted exports so they can be listed and replayed.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/log"
)

// DatabaseName is the file created under the storage directory.
const DatabaseName = "history.db"

// SearchEntry is one committed search page.
type SearchEntry struct {
	ID         int64
	Filters    leads.FilterSelection
	Page       int
	Total      int
	TotalPages int
	At         time.Time
}

// ExportEntry is one submitted export job.
type ExportEntry struct {
	ID      int64
	JobID   string
	Format  leads.ExportFormat
	Filters leads.FilterSelection
	At      time.Time
}

type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the history database at dbPath and brings
// its schema up to date.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: log.ForService("history"), now: time.Now}
	if _, err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInDir opens DatabaseName inside storageDir.
func OpenInDir(storageDir string) (*Store, error) {
	return Open(filepath.Join(storageDir, DatabaseName))
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordSearch(ctx context.Context, filters leads.FilterSelection, page leads.SearchResultPage) error {
	data, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("marshaling filters: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO searches (filter_key, filters, page, total, total_pages, searched_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, filters.Key(), string(data), page.Pagination.Page, page.Pagination.Total, page.Pagination.TotalPages, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

func (s *Store) RecordExport(ctx context.Context, jobID string, job leads.ExportJob) error {
	data, err := json.Marshal(job.Filters)
	if err != nil {
		return fmt.Errorf("marshaling filters: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exports (job_id, format, filters, submitted_at)
		VALUES (?, ?, ?, ?)
	`, jobID, string(job.Format), string(data), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

// RecentSearches returns up to limit searches, newest first.
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]SearchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filters, page, total, total_pages, searched_at
		FROM searches
		ORDER BY searched_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var out []SearchEntry
	for rows.Next() {
		var (
			e       SearchEntry
			filters string
			at      int64
		)
		if err := rows.Scan(&e.ID, &filters, &e.Page, &e.Total, &e.TotalPages, &at); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		if err := json.Unmarshal([]byte(filters), &e.Filters); err != nil {
			return nil, fmt.Errorf("decoding filters of search %d: %w", e.ID, err)
		}
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentExports returns up to limit exports, newest first.
func (s *Store) RecentExports(ctx context.Context, limit int) ([]ExportEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, format, filters, submitted_at
		FROM exports
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer rows.Close()

	var out []ExportEntry
	for rows.Next() {
		var (
			e       ExportEntry
			format  string
			filters string
			at      int64
		)
		if err := rows.Scan(&e.ID, &e.JobID, &format, &filters, &at); err != nil {
			return nil, fmt.Errorf("scanning export row: %w", err)
		}
		if err := json.Unmarshal([]byte(filters), &e.Filters); err != nil {
			return nil, fmt.Errorf("decoding filters of export %d: %w", e.ID, err)
		}
		e.Format = leads.ExportFormat(format)
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastFilters returns the filters of the most recent search.
func (s *Store) LastFilters(ctx context.Context) (leads.FilterSelection, bool, error) {
	var filters string
	err := s.db.QueryRowContext(ctx, `
		SELECT filters FROM searches ORDER BY searched_at DESC, id DESC LIMIT 1
	`).Scan(&filters)
	if errors.Is(err, sql.ErrNoRows) {
		return leads.FilterSelection{}, false, nil
	}
	if err != nil {
		return leads.FilterSelection{}, false, fmt.Errorf("querying last search: %w", err)
	}
	var sel leads.FilterSelection
	if err := json.Unmarshal([]byte(filters), &sel); err != nil {
		return leads.FilterSelection{}, false, fmt.Errorf("decoding last filters: %w", err)
	}
	return sel, true, nil
}
