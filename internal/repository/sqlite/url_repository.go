// Package sqlite is the durable, single-writer, file-backed record store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/migrations"
	"github.com/Kevin42127/TinyLink/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const selectColumns = `id, short_code, original_url, title, description, click_count, created_at, expires_at`

type URLRepository struct {
	db *sql.DB
}

var _ repository.Store = (*URLRepository)(nil)

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func Open(path string, logger *slog.Logger) (*URLRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// single writer; also keeps ":memory:" pinned to one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	migrator, err := migrations.NewSQLite(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		db.Close()
		return nil, err
	}

	return &URLRepository{db: db}, nil
}

func (r *URLRepository) Close() error {
	return r.db.Close()
}

func (r *URLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *URLRepository) Insert(ctx context.Context, url *domain.ShortURL) error {
	query := `
		INSERT INTO short_urls (short_code, original_url, title, description, click_count, created_at, expires_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		url.ShortCode,
		url.OriginalURL,
		nullString(url.Title),
		nullString(url.Description),
		url.CreatedAt.UTC().UnixNano(),
		nullUnixNano(url.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return err
	}

	id, err := res.LastInsertId()
	if err == nil {
		url.ID = id
	}

	return nil
}

func (r *URLRepository) GetByCode(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	query := `SELECT ` + selectColumns + ` FROM short_urls WHERE short_code = ?`

	url, err := scanURL(r.db.QueryRowContext(ctx, query, shortCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return url, nil
}

func (r *URLRepository) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_urls WHERE short_code = ?)`, shortCode,
	).Scan(&exists)

	return exists, err
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE short_urls SET click_count = click_count + 1 WHERE short_code = ?`, shortCode,
	)
	if err != nil {
		return err
	}

	return requireAffected(res)
}

func (r *URLRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.ShortURL, error) {
	if limit <= 0 {
		return []*domain.ShortURL{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + selectColumns + `
		FROM short_urls
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make([]*domain.ShortURL, 0, limit)
	for rows.Next() {
		url, err := scanURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

func (r *URLRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM short_urls`).Scan(&count)
	return count, err
}

func (r *URLRepository) DeleteByCode(ctx context.Context, shortCode string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM short_urls WHERE short_code = ?`, shortCode)
	if err != nil {
		return err
	}

	return requireAffected(res)
}

func (r *URLRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM short_urls`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (r *URLRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM short_urls WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC().UnixNano(),
	)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanURL(row rowScanner) (*domain.ShortURL, error) {
	var (
		url         domain.ShortURL
		title       sql.NullString
		description sql.NullString
		createdAt   int64
		expiresAt   sql.NullInt64
	)

	err := row.Scan(
		&url.ID,
		&url.ShortCode,
		&url.OriginalURL,
		&title,
		&description,
		&url.ClickCount,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	url.Title = title.String
	url.Description = description.String
	url.CreatedAt = time.Unix(0, createdAt).UTC()
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64).UTC()
		url.ExpiresAt = &t
	}

	return &url, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUnixNano(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixNano(), Valid: true}
}
