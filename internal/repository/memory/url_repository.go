// Package memory is the volatile, process-lifetime record store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/repository"
)

type URLRepository struct {
	mu     sync.RWMutex
	urls   map[string]*domain.ShortURL
	nextID int64
}

var _ repository.Store = (*URLRepository)(nil)

func NewURLRepository() *URLRepository {
	return &URLRepository{
		urls: make(map[string]*domain.ShortURL),
	}
}

func (r *URLRepository) Insert(ctx context.Context, url *domain.ShortURL) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[url.ShortCode]; exists {
		return domain.ErrDuplicateKey
	}

	r.nextID++
	url.ID = r.nextID

	r.urls[url.ShortCode] = copyURL(url)
	return nil
}

// GetByCode returns a copy so callers cannot bypass IncrementClicks.
func (r *URLRepository) GetByCode(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, exists := r.urls[shortCode]
	if !exists {
		return nil, domain.ErrNotFound
	}

	return copyURL(url), nil
}

func (r *URLRepository) ExistsByCode(ctx context.Context, shortCode string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.urls[shortCode]
	return exists, nil
}

func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	url, exists := r.urls[shortCode]
	if !exists {
		return domain.ErrNotFound
	}

	url.ClickCount++
	return nil
}

func (r *URLRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.ShortURL, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	all := make([]*domain.ShortURL, 0, len(r.urls))
	for _, url := range r.urls {
		all = append(all, copyURL(url))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(all) {
		return []*domain.ShortURL{}, nil
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	return all[offset:end], nil
}

func (r *URLRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.urls)), nil
}

func (r *URLRepository) DeleteByCode(ctx context.Context, shortCode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.urls[shortCode]; !exists {
		return domain.ErrNotFound
	}

	delete(r.urls, shortCode)
	return nil
}

func (r *URLRepository) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := int64(len(r.urls))
	r.urls = make(map[string]*domain.ShortURL)

	return removed, nil
}

func (r *URLRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for code, url := range r.urls {
		if url.IsExpired(now) {
			delete(r.urls, code)
			removed++
		}
	}

	return removed, nil
}

func (r *URLRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func copyURL(url *domain.ShortURL) *domain.ShortURL {
	c := *url
	if url.ExpiresAt != nil {
		expiresAt := *url.ExpiresAt
		c.ExpiresAt = &expiresAt
	}
	return &c
}
