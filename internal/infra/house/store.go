package house

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"lego-house/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	dirPermissions    = 0750
	connectionTimeout = 5 * time.Second
	busyTimeoutMS     = 5000
)

// ErrNoLocation is returned by Latest when nothing was ever saved.
var ErrNoLocation = errors.New("no saved house location")

// Store persists house placements in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database directory and file if needed and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL", path, busyTimeoutMS)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, loc domain.HouseLocation) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO house_locations (x, y, saved_at) VALUES (?, ?, ?)",
		loc.X, loc.Y, loc.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving house location: %w", err)
	}
	return nil
}

// Latest returns the most recently saved location.
func (s *Store) Latest(ctx context.Context) (domain.HouseLocation, error) {
	var (
		loc     domain.HouseLocation
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT x, y, saved_at FROM house_locations ORDER BY id DESC LIMIT 1",
	).Scan(&loc.X, &loc.Y, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HouseLocation{}, ErrNoLocation
	}
	if err != nil {
		return domain.HouseLocation{}, fmt.Errorf("loading house location: %w", err)
	}
	loc.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt) //nolint:errcheck // written by Save
	return loc, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		version, _, _ := strings.Cut(name, "_")
		var applied int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %s: %w", version, err)
		}
		if applied > 0 {
			continue
		}
		if err := s.apply(ctx, version, name); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, version, name string) error {
	body, err := migrationsFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}
