package domain

import "time"

type ShortURL struct {
	ID          int64      `json:"-"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	ClickCount  int64      `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the link is expired at now. The expiry instant
// itself counts as expired.
func (u *ShortURL) IsExpired(now time.Time) bool {
	if u.ExpiresAt == nil {
		return false
	}
	return !now.Before(*u.ExpiresAt)
}

type CreateURLRequest struct {
	OriginalURL   string `json:"url" validate:"required,url,max=2048"`
	CustomCode    string `json:"custom_code,omitempty" validate:"omitempty,shortcode"`
	ExpiresInDays int    `json:"expires_in_days,omitempty" validate:"omitempty,gte=1,lte=365"`
	Title         string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// BatchItem only gets shape checks here. URL and code format problems are
// reported per item by the service so one bad entry does not fail the batch.
type BatchItem struct {
	OriginalURL string `json:"url" validate:"required,max=2048"`
	CustomCode  string `json:"custom_code,omitempty"`
	Title       string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type BatchCreateRequest struct {
	URLs          []BatchItem `json:"urls" validate:"required,min=1,dive"`
	ExpiresInDays int         `json:"expires_in_days,omitempty" validate:"omitempty,gte=1,lte=365"`
}

type BatchResult struct {
	Index int       `json:"index"`
	URL   *ShortURL `json:"url"`
}

type BatchError struct {
	Index       int    `json:"index"`
	OriginalURL string `json:"original_url"`
	Message     string `json:"error"`
	Err         error  `json:"-"`
}

type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type BatchCreateResult struct {
	Results []BatchResult `json:"results"`
	Errors  []BatchError  `json:"errors"`
	Summary BatchSummary  `json:"summary"`
}

type URLList struct {
	URLs    []*ShortURL `json:"urls"`
	Total   int64       `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}
