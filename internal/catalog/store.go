// Package catalog is a local implementation of the article catalog API,
// backed by SQLite.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lansepyy/article-admin/internal/api"
	_ "modernc.org/sqlite"
)

// Store persists catalog items. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path. ":memory:" gives an
// in-memory database that lives until Close.
func Open(path string) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		tid INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		section TEXT NOT NULL DEFAULT '',
		sub_type TEXT NOT NULL DEFAULT '',
		publish_date TEXT NOT NULL,
		magnet TEXT NOT NULL DEFAULT '',
		preview_images TEXT NOT NULL DEFAULT '',
		size REAL,
		in_stock INTEGER NOT NULL DEFAULT 0,
		detail_url TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_items_published ON items(publish_date DESC, tid);
	CREATE INDEX IF NOT EXISTS idx_items_section ON items(section, sub_type);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Upsert inserts items, replacing any with the same tid.
func (s *Store) Upsert(ctx context.Context, items ...api.WireItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO items
			(tid, title, section, sub_type, publish_date, magnet, preview_images, size, in_stock, detail_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		var size sql.NullFloat64
		if it.Size != nil {
			size = sql.NullFloat64{Float64: *it.Size, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, it.TID, it.Title, it.Section, it.SubType, dateOnly(it.PublishDate),
			it.Magnet, it.PreviewImages, size, it.InStock, it.DetailURL); err != nil {
			return 0, fmt.Errorf("insert item %d: %w", it.TID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(items), nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Search runs req: keyword is a case-insensitive title substring, section
// matches the section or the sub type, the date range is inclusive. Results
// are newest first, then by tid.
func (s *Store) Search(ctx context.Context, req api.SearchRequest) (api.WireSearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []interface{}
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		where = append(where, "instr(lower(title), lower(?)) > 0")
		args = append(args, kw)
	}
	if req.Section != "" {
		where = append(where, "(section = ? OR sub_type = ?)")
		args = append(args, req.Section, req.Section)
	}
	if req.PublishDateRange.From != "" {
		where = append(where, "publish_date >= ?")
		args = append(args, req.PublishDateRange.From)
	}
	if req.PublishDateRange.To != "" {
		where = append(where, "publish_date <= ?")
		args = append(args, req.PublishDateRange.To)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	result := api.WireSearchResult{Items: []api.WireItem{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items"+clause, args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count matches: %w", err)
	}
	if req.Page < 1 || req.PerPage < 1 || result.Total == 0 {
		return result, nil
	}

	query := `SELECT tid, title, section, sub_type, publish_date, magnet, preview_images, size, in_stock, detail_url
		FROM items` + clause + ` ORDER BY publish_date DESC, tid ASC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, req.PerPage, (req.Page-1)*req.PerPage)...)
	if err != nil {
		return result, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it api.WireItem
		var size sql.NullFloat64
		if err := rows.Scan(&it.TID, &it.Title, &it.Section, &it.SubType, &it.PublishDate,
			&it.Magnet, &it.PreviewImages, &size, &it.InStock, &it.DetailURL); err != nil {
			return result, fmt.Errorf("scan item: %w", err)
		}
		if size.Valid {
			v := size.Float64
			it.Size = &v
		}
		result.Items = append(result.Items, it)
	}
	return result, rows.Err()
}

// Categories counts items per section and sub type, in name order.
func (s *Store) Categories(ctx context.Context) ([]api.WireCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT section, sub_type, COUNT(*) FROM items
		GROUP BY section, sub_type
		ORDER BY section, sub_type`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	tree := []api.WireCategory{}
	for rows.Next() {
		var section, sub string
		var n int
		if err := rows.Scan(&section, &sub, &n); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if len(tree) == 0 || tree[len(tree)-1].Category != section {
			tree = append(tree, api.WireCategory{Category: section})
		}
		cat := &tree[len(tree)-1]
		cat.Count += n
		if sub != "" {
			cat.Items = append(cat.Items, api.WireCategory{Category: sub, Count: n})
		}
	}
	return tree, rows.Err()
}

// LoadSeed upserts the JSON array of wire items in path.
func (s *Store) LoadSeed(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}
	var items []api.WireItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return s.Upsert(ctx, items...)
}

// dateOnly keeps the YYYY-MM-DD prefix of a publish date so range
// comparisons stay lexical.
func dateOnly(d string) string {
	if len(d) > 10 {
		return d[:10]
	}
	return d
}
