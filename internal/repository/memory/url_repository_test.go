package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newURL(code string, createdAt time.Time) *domain.ShortURL {
	return &domain.ShortURL{
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   createdAt,
	}
}

func TestURLRepository_InsertAndGet(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	url := newURL("abc123", time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, url))
	assert.NotZero(t, url.ID)

	result, err := repo.GetByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/abc123", result.OriginalURL)
	assert.Equal(t, int64(0), result.ClickCount)
}

func TestURLRepository_Insert_Duplicate(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newURL("dup1", time.Now())))

	err := repo.Insert(ctx, &domain.ShortURL{ShortCode: "dup1", OriginalURL: "https://other.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	result, err := repo.GetByCode(ctx, "dup1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/dup1", result.OriginalURL)
}

func TestURLRepository_Insert_ConcurrentSameCode(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Insert(ctx, newURL("race", time.Now())); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}

func TestURLRepository_GetByCode_NotFound(t *testing.T) {
	repo := NewURLRepository()

	result, err := repo.GetByCode(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, result)
}

func TestURLRepository_GetByCode_ReturnsCopy(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newURL("copy1", time.Now())))

	result, err := repo.GetByCode(ctx, "copy1")
	require.NoError(t, err)
	result.ClickCount = 99

	again, err := repo.GetByCode(ctx, "copy1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.ClickCount)
}

func TestURLRepository_ExistsByCode_IgnoresExpiry(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	url := newURL("old1", time.Now().Add(-2*time.Hour))
	url.ExpiresAt = &past
	require.NoError(t, repo.Insert(ctx, url))

	exists, err := repo.ExistsByCode(ctx, "old1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCode(ctx, "none1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestURLRepository_IncrementClicks(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newURL("click1", time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementClicks(ctx, "click1"))
		}()
	}
	wg.Wait()

	result, err := repo.GetByCode(ctx, "click1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.ClickCount)

	assert.ErrorIs(t, repo.IncrementClicks(ctx, "missing"), domain.ErrNotFound)
}

func TestURLRepository_ListRecent_Ordering(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, newURL("old1", base)))
	require.NoError(t, repo.Insert(ctx, newURL("new1", base.Add(time.Hour))))
	require.NoError(t, repo.Insert(ctx, newURL("tie1", base)))

	urls, err := repo.ListRecent(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, urls, 3)
	assert.Equal(t, "new1", urls[0].ShortCode)
	assert.Equal(t, "tie1", urls[1].ShortCode, "ties are broken by insertion order, newest first")
	assert.Equal(t, "old1", urls[2].ShortCode)
}

func TestURLRepository_ListRecent_Pagination(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, newURL(fmt.Sprintf("page%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	page, err := repo.ListRecent(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "page3", page[0].ShortCode)
	assert.Equal(t, "page2", page[1].ShortCode)

	page, err = repo.ListRecent(ctx, 10, 4)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	page, err = repo.ListRecent(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestURLRepository_DeleteByCode(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newURL("del1", time.Now())))

	require.NoError(t, repo.DeleteByCode(ctx, "del1"))
	assert.ErrorIs(t, repo.DeleteByCode(ctx, "del1"), domain.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestURLRepository_DeleteAll(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, newURL(fmt.Sprintf("all%d", i), time.Now())))
	}

	removed, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	removed, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestURLRepository_DeleteExpiredBefore(t *testing.T) {
	repo := NewURLRepository()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	expired := newURL("exp1", now.Add(-time.Hour))
	expired.ExpiresAt = &past
	atBoundary := newURL("edge1", now.Add(-time.Hour))
	atBoundary.ExpiresAt = &now
	live := newURL("live1", now.Add(-time.Hour))
	live.ExpiresAt = &future
	forever := newURL("ever1", now.Add(-time.Hour))

	for _, url := range []*domain.ShortURL{expired, atBoundary, live, forever} {
		require.NoError(t, repo.Insert(ctx, url))
	}

	removed, err := repo.DeleteExpiredBefore(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = repo.DeleteExpiredBefore(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestURLRepository_CanceledContext(t *testing.T) {
	repo := NewURLRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Insert(ctx, newURL("ctx1", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = repo.GetByCode(ctx, "ctx1")
	assert.ErrorIs(t, err, context.Canceled)
}
