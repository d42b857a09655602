package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const selectColumns = `id, short_code, original_url, COALESCE(title, ''), COALESCE(description, ''), click_count, created_at, expires_at`

type URLRepository struct {
	db *pgxpool.Pool
}

var _ repository.Store = (*URLRepository)(nil)

func NewURLRepository(db *pgxpool.Pool) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *URLRepository) Insert(ctx context.Context, url *domain.ShortURL) error {
	query := `
		INSERT INTO short_urls (short_code, original_url, title, description, created_at, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		url.ShortCode,
		url.OriginalURL,
		url.Title,
		url.Description,
		url.CreatedAt.UTC(),
		url.ExpiresAt,
	).Scan(&url.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateKey
		}
		return err
	}

	return nil
}

func (r *URLRepository) GetByCode(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	query := `SELECT ` + selectColumns + ` FROM short_urls WHERE short_code = $1`

	url, err := scanURL(r.db.QueryRow(ctx, query, shortCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return url, nil
}

func (r *URLRepository) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_urls WHERE short_code = $1)`, shortCode,
	).Scan(&exists)

	return exists, err
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE short_urls SET click_count = click_count + 1 WHERE short_code = $1`, shortCode,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
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
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
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
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM short_urls`).Scan(&count)
	return count, err
}

func (r *URLRepository) DeleteByCode(ctx context.Context, shortCode string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM short_urls WHERE short_code = $1`, shortCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *URLRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM short_urls`)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (r *URLRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM short_urls WHERE expires_at IS NOT NULL AND expires_at <= $1`, now.UTC(),
	)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanURL(row pgx.Row) (*domain.ShortURL, error) {
	var url domain.ShortURL

	err := row.Scan(
		&url.ID,
		&url.ShortCode,
		&url.OriginalURL,
		&url.Title,
		&url.Description,
		&url.ClickCount,
		&url.CreatedAt,
		&url.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	url.CreatedAt = url.CreatedAt.UTC()
	if url.ExpiresAt != nil {
		t := url.ExpiresAt.UTC()
		url.ExpiresAt = &t
	}

	return &url, nil
}
