package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/podcaster/internal/model"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore implements Store on database/sql. SQLite and Postgres share the
// same statements; placeholders are rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	mu      sync.Mutex
	entropy io.Reader
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create db dir: %w", ErrStorage, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrStorage, err)
	}
	return newSQLStore(db, dialectSQLite)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: d,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStorage, err)
	}
	return s, nil
}

func (s *SQLStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// rebind rewrites ? placeholders for the store's dialect.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id          TEXT PRIMARY KEY,
			hash        TEXT NOT NULL UNIQUE,
			date        TEXT NOT NULL,
			title       TEXT NOT NULL,
			author      TEXT,
			url         TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS digests (
			id          TEXT PRIMARY KEY,
			run_id      TEXT NOT NULL,
			content     TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digests_run ON digests(run_id)`,

		`CREATE TABLE IF NOT EXISTS digest_items (
			digest_id   TEXT NOT NULL REFERENCES digests(id),
			item_hash   TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			PRIMARY KEY (digest_id, item_hash)
		)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			stage        TEXT NOT NULL,
			status       TEXT NOT NULL,
			episode_path TEXT,
			error        TEXT,
			started_at   TEXT NOT NULL,
			finished_at  TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const itemColumns = `id, hash, date, title, author, url, content, created_at`

func (s *SQLStore) Has(ctx context.Context, p PutParams) (bool, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM items WHERE hash = ?`, p.Hash()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: has item: %w", ErrStorage, err)
	}
	return n > 0, nil
}

// Put inserts the item in a single statement. The unique hash index decides
// between concurrent writers; the loser reports Inserted=false.
func (s *SQLStore) Put(ctx context.Context, p PutParams) (*PutResult, error) {
	now := time.Now().UTC()
	item := model.Item{
		ID:        s.newID(),
		Hash:      p.Hash(),
		Date:      p.Date,
		Title:     p.Title,
		Author:    p.Author,
		URL:       p.URL,
		Content:   p.Content,
		CreatedAt: now,
	}

	var author *string
	if p.Author != "" {
		author = &p.Author
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	res, err := s.exec(ctx, tx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (hash) DO NOTHING`,
		item.ID, item.Hash, item.Date, item.Title, author, item.URL, item.Content,
		formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("%w: insert item: %w", ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: insert item: %w", ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}

	if n == 0 {
		existing, err := s.Get(ctx, item.Hash)
		if err != nil {
			return nil, err
		}
		return &PutResult{Item: *existing, Inserted: false}, nil
	}
	return &PutResult{Item: item, Inserted: true}, nil
}

func (s *SQLStore) Get(ctx context.Context, hash string) (*model.Item, error) {
	row := s.queryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE hash = ?`, hash)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get item: %w", ErrStorage, err)
	}
	return &item, nil
}

func (s *SQLStore) List(ctx context.Context, p ListParams) ([]model.Item, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := "1 = 1"
	args := []any{}
	if !p.Since.IsZero() {
		where = "created_at >= ?"
		args = append(args, formatTime(p.Since))
	}
	args = append(args, limit)

	return s.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+where+` ORDER BY id DESC LIMIT ?`, args...)
}

func (s *SQLStore) queryItems(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query items: %w", ErrStorage, err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan item: %w", ErrStorage, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query items: %w", ErrStorage, err)
	}
	return items, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (model.Item, error) {
	var item model.Item
	var author sql.NullString
	var createdAt string

	err := row.Scan(&item.ID, &item.Hash, &item.Date, &item.Title, &author,
		&item.URL, &item.Content, &createdAt)
	if err != nil {
		return item, err
	}
	item.Author = author.String
	item.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return item, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
