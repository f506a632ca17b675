package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"propalyst/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS scraped_listings (
    source_url  TEXT PRIMARY KEY,
    source      TEXT NOT NULL,
    scraped_at  TIMESTAMPTZ NOT NULL,
    data        JSONB NOT NULL
)`

// PostgresStore keeps scraped listings in a single-table Postgres schema,
// one row per URL with the record list as JSONB.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects, verifies the connection and ensures the schema.
func NewPostgresStore(dsn string, maxConn, maxIdleConn int) (*PostgresStore, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// pgEntry is the row shape; data round-trips through JSONRecords.
type pgEntry struct {
	Source    string            `db:"source"`
	SourceURL string            `db:"source_url"`
	ScrapedAt time.Time         `db:"scraped_at"`
	Data      model.JSONRecords `db:"data"`
}

func (e pgEntry) toModel() model.StoredEntry {
	return model.StoredEntry{
		Type:      e.Source,
		SourceURL: e.SourceURL,
		ScrapedAt: e.ScrapedAt,
		Data:      e.Data,
	}
}

func (s *PostgresStore) Save(ctx context.Context, url string, records []model.PropertyRecord, source string) error {
	query := `
		INSERT INTO scraped_listings (source_url, source, scraped_at, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_url) DO UPDATE
		SET source = EXCLUDED.source, scraped_at = EXCLUDED.scraped_at, data = EXCLUDED.data`

	_, err := s.db.ExecContext(ctx, query, url, source, time.Now().UTC(), model.JSONRecords(records))
	if err != nil {
		return fmt.Errorf("store: save %s: %w", url, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, url string) (*model.StoredEntry, error) {
	var row pgEntry
	err := s.db.GetContext(ctx, &row,
		`SELECT source, source_url, scraped_at, data FROM scraped_listings WHERE source_url = $1`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", url, err)
	}
	entry := row.toModel()
	return &entry, nil
}

func (s *PostgresStore) All(ctx context.Context) ([]model.StoredEntry, error) {
	var rows []pgEntry
	err := s.db.SelectContext(ctx, &rows,
		`SELECT source, source_url, scraped_at, data FROM scraped_listings ORDER BY scraped_at`)
	if err != nil {
		return nil, fmt.Errorf("store: load all: %w", err)
	}

	entries := make([]model.StoredEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.toModel()
	}
	return entries, nil
}

func (s *PostgresStore) Delete(ctx context.Context, url string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scraped_listings WHERE source_url = $1`, url)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", url, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", url, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scraped_listings`); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}
