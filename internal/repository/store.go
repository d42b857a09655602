// Package repository defines the record store contract shared by every backend.
package repository

import (
	"context"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
)

// Store is durable or volatile keyed storage for short URL records.
//
// Insert must be atomically conditional on the short code being absent and
// return domain.ErrDuplicateKey otherwise. Lookups that miss return
// domain.ErrNotFound. None of the methods filter by expiry.
type Store interface {
	Insert(ctx context.Context, url *domain.ShortURL) error
	GetByCode(ctx context.Context, shortCode string) (*domain.ShortURL, error)
	ExistsByCode(ctx context.Context, shortCode string) (bool, error)
	IncrementClicks(ctx context.Context, shortCode string) error
	// ListRecent orders by creation time, newest first, ties broken by insertion order.
	ListRecent(ctx context.Context, limit, offset int) ([]*domain.ShortURL, error)
	Count(ctx context.Context) (int64, error)
	DeleteByCode(ctx context.Context, shortCode string) error
	DeleteAll(ctx context.Context) (int64, error)
	// DeleteExpiredBefore removes records whose expiry is set and not after now.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
