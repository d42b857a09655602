package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/internal/repository"
	"github.com/Kevin42127/TinyLink/pkg/generator"
	"github.com/Kevin42127/TinyLink/pkg/validator"
)

const (
	maxGenerateAttempts = 10
	maxExpiryDays       = 365
)

type ShortenerService struct {
	store    repository.Store
	denylist []string
	generate func() string
	now      func() time.Time
}

func NewShortenerService(store repository.Store, gen *generator.Generator, denylist []string) *ShortenerService {
	return &ShortenerService{
		store:    store,
		denylist: denylist,
		generate: gen.Generate,
		now:      time.Now,
	}
}

// ShortenURL allocates a code for req.OriginalURL, either the caller's custom
// code or a generated one.
func (s *ShortenerService) ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.ShortURL, error) {
	if req == nil || strings.TrimSpace(req.OriginalURL) == "" {
		return nil, domain.ErrInvalidURL
	}

	target, err := validator.TargetURL(req.OriginalURL, s.denylist)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	if req.ExpiresInDays < 0 || req.ExpiresInDays > maxExpiryDays {
		return nil, domain.ErrInvalidExpiry
	}

	if req.CustomCode != "" {
		return s.allocateCustom(ctx, target, req)
	}

	return s.allocateGenerated(ctx, target, req)
}

func (s *ShortenerService) allocateCustom(ctx context.Context, target string, req *domain.CreateURLRequest) (*domain.ShortURL, error) {
	if !generator.IsValidCode(req.CustomCode) {
		return nil, domain.ErrInvalidCodeFormat
	}

	exists, err := s.store.ExistsByCode(ctx, req.CustomCode)
	if err != nil {
		return nil, storeError("exists", err)
	}
	if exists {
		return nil, domain.ErrCodeAlreadyExists
	}

	url := s.newRecord(req.CustomCode, target, req)
	if err := s.store.Insert(ctx, url); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrCodeAlreadyExists
		}
		return nil, storeError("insert", err)
	}

	return url, nil
}

func (s *ShortenerService) allocateGenerated(ctx context.Context, target string, req *domain.CreateURLRequest) (*domain.ShortURL, error) {
	log := logger.FromContext(ctx)

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code := s.generate()

		exists, err := s.store.ExistsByCode(ctx, code)
		if err != nil {
			return nil, storeError("exists", err)
		}
		if exists {
			log.Debug("Generated short code collided", slog.String("short_code", code), slog.Int("attempt", attempt))
			continue
		}

		url := s.newRecord(code, target, req)
		err = s.store.Insert(ctx, url)
		if err == nil {
			return url, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return nil, storeError("insert", err)
		}

		log.Debug("Generated short code lost insert race", slog.String("short_code", code), slog.Int("attempt", attempt))
	}

	log.Warn("Short code allocation exhausted", slog.Int("attempts", maxGenerateAttempts))

	return nil, domain.ErrAllocationExhausted
}

func (s *ShortenerService) newRecord(code, target string, req *domain.CreateURLRequest) *domain.ShortURL {
	createdAt := s.now().UTC()

	url := &domain.ShortURL{
		ShortCode:   code,
		OriginalURL: target,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   createdAt,
	}

	if req.ExpiresInDays > 0 {
		expiresAt := createdAt.Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		url.ExpiresAt = &expiresAt
	}

	return url
}

// ShortenBatch shortens every item independently. Item failures are reported
// per index; only a canceled context fails the whole batch.
func (s *ShortenerService) ShortenBatch(ctx context.Context, req *domain.BatchCreateRequest) (*domain.BatchCreateResult, error) {
	result := &domain.BatchCreateResult{
		Results: []domain.BatchResult{},
		Errors:  []domain.BatchError{},
	}
	if req == nil {
		return result, nil
	}

	for i, item := range req.URLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url, err := s.ShortenURL(ctx, &domain.CreateURLRequest{
			OriginalURL:   item.OriginalURL,
			CustomCode:    item.CustomCode,
			ExpiresInDays: req.ExpiresInDays,
			Title:         item.Title,
			Description:   item.Description,
		})
		if err != nil {
			result.Errors = append(result.Errors, domain.BatchError{
				Index:       i,
				OriginalURL: item.OriginalURL,
				Message:     err.Error(),
				Err:         err,
			})
			continue
		}

		result.Results = append(result.Results, domain.BatchResult{Index: i, URL: url})
	}

	result.Summary = domain.BatchSummary{
		Total:   len(req.URLs),
		Success: len(result.Results),
		Failed:  len(result.Errors),
	}

	return result, nil
}

// Resolve returns the record behind shortCode and counts the click. A failed
// click increment is logged and does not fail the resolution.
func (s *ShortenerService) Resolve(ctx context.Context, shortCode string) (*domain.ShortURL, error) {
	if !generator.IsValidCode(shortCode) {
		return nil, domain.ErrInvalidCodeFormat
	}

	url, err := s.store.GetByCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storeError("get", err)
	}

	if url.IsExpired(s.now()) {
		return nil, domain.ErrExpired
	}

	if err := s.store.IncrementClicks(ctx, shortCode); err != nil {
		logger.FromContext(ctx).Warn("Failed to increment click count",
			slog.String("short_code", shortCode),
			slog.String("error", err.Error()),
		)
	} else {
		url.ClickCount++
	}

	return url, nil
}

// List returns one page of records, newest first.
func (s *ShortenerService) List(ctx context.Context, limit, offset int) (*domain.URLList, error) {
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}

	urls, err := s.store.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, storeError("list", err)
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, storeError("count", err)
	}

	return &domain.URLList{
		URLs:    urls,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(urls)) < total,
	}, nil
}

// Delete reports whether a record was removed.
func (s *ShortenerService) Delete(ctx context.Context, shortCode string) (bool, error) {
	if !generator.IsValidCode(shortCode) {
		return false, domain.ErrInvalidCodeFormat
	}

	if err := s.store.DeleteByCode(ctx, shortCode); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, storeError("delete", err)
	}

	return true, nil
}

func (s *ShortenerService) DeleteAll(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, storeError("delete all", err)
	}

	logger.FromContext(ctx).Info("Deleted all short urls", slog.Int64("removed", removed))

	return removed, nil
}

// Exists is advisory only; an allocation can still lose the race afterwards.
func (s *ShortenerService) Exists(ctx context.Context, shortCode string) (bool, error) {
	if !generator.IsValidCode(shortCode) {
		return false, domain.ErrInvalidCodeFormat
	}

	exists, err := s.store.ExistsByCode(ctx, shortCode)
	if err != nil {
		return false, storeError("exists", err)
	}

	return exists, nil
}

func storeError(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}
