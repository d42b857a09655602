package mocks

import (
	"context"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShortenerService struct {
	mock.Mock
}

var _ interface {
	ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.ShortURL, error)
	ShortenBatch(ctx context.Context, req *domain.BatchCreateRequest) (*domain.BatchCreateResult, error)
	Resolve(ctx context.Context, shortCode string) (*domain.ShortURL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	Delete(ctx context.Context, shortCode string) (bool, error)
	List(ctx context.Context, limit, offset int) (*domain.URLList, error)
	DeleteAll(ctx context.Context) (int64, error)
} = (*MockShortenerService)(nil)

func (m *MockShortenerService) ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.ShortURL, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortURL), args.Error(1)
}

func (m *MockShortenerService) ShortenBatch(ctx context.Context, req *domain.BatchCreateRequest) (*domain.BatchCreateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchCreateResult), args.Error(1)
}

func (m *MockShortenerService) Resolve(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShortURL), args.Error(1)
}

func (m *MockShortenerService) Exists(ctx context.Context, shortCode string) (bool, error) {
	args := m.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockShortenerService) Delete(ctx context.Context, shortCode string) (bool, error) {
	args := m.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockShortenerService) List(ctx context.Context, limit, offset int) (*domain.URLList, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.URLList), args.Error(1)
}

func (m *MockShortenerService) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepNow(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
