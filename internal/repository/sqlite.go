// Package repository archives publications in SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/xiaot623/gogo/debatebridge/internal/domain"
)

// ErrDuplicatePublication is returned when a run already has a publication.
var ErrDuplicatePublication = errors.New("run already published")

// SQLiteStore is the publication archive.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			publication_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL,
			topic TEXT,
			response_count INTEGER NOT NULL DEFAULT 0,
			published_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_published ON publications(published_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Columns added after the first release.
	if err := s.ensureColumn("publications", "topology", "ALTER TABLE publications ADD COLUMN topology TEXT"); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreatePublication records a publication. It returns ErrDuplicatePublication
// if the run was already published.
func (s *SQLiteStore) CreatePublication(ctx context.Context, pub *domain.Publication) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO publications (publication_id, run_id, url, topic, topology, response_count, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pub.PublicationID, pub.RunID, pub.URL, nullString(pub.Topic), nullString(pub.Topology),
		pub.ResponseCount, pub.PublishedAt.UTC())
	if isRunConflict(err) {
		return ErrDuplicatePublication
	}
	if err != nil {
		return fmt.Errorf("failed to insert publication %s: %w", pub.PublicationID, err)
	}
	return nil
}

// isRunConflict reports whether err is the unique violation on run_id. Other
// constraint failures, such as a reused publication id, are not duplicates.
func isRunConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "publications.run_id")
}

// GetPublicationByRun returns the publication for runID, or nil if the run was
// never published.
func (s *SQLiteStore) GetPublicationByRun(ctx context.Context, runID string) (*domain.Publication, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT publication_id, run_id, url, topic, topology, response_count, published_at
		 FROM publications WHERE run_id = ?`, runID)
	pub, err := scanPublication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// ListPublications returns the most recent publications first.
func (s *SQLiteStore) ListPublications(ctx context.Context, limit int) ([]domain.Publication, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT publication_id, run_id, url, topic, topology, response_count, published_at
		 FROM publications ORDER BY published_at DESC, publication_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pubs := make([]domain.Publication, 0)
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, *pub)
	}
	return pubs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPublication(row scanner) (*domain.Publication, error) {
	var pub domain.Publication
	var topic, topology sql.NullString
	var publishedAt time.Time
	if err := row.Scan(&pub.PublicationID, &pub.RunID, &pub.URL, &topic, &topology,
		&pub.ResponseCount, &publishedAt); err != nil {
		return nil, err
	}
	pub.Topic = topic.String
	pub.Topology = topology.String
	pub.PublishedAt = publishedAt
	return &pub, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
