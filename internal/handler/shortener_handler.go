package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/Kevin42127/TinyLink/pkg/response"
	"github.com/Kevin42127/TinyLink/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ShortenerService interface {
	ShortenURL(ctx context.Context, req *domain.CreateURLRequest) (*domain.ShortURL, error)
	ShortenBatch(ctx context.Context, req *domain.BatchCreateRequest) (*domain.BatchCreateResult, error)
	Resolve(ctx context.Context, shortCode string) (*domain.ShortURL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	Delete(ctx context.Context, shortCode string) (bool, error)
}

type ShortenerHandler struct {
	service       ShortenerService
	baseURL       string
	batchMaxItems int
}

func NewShortenerHandler(service ShortenerService, baseURL string, batchMaxItems int) *ShortenerHandler {
	return &ShortenerHandler{
		service:       service,
		baseURL:       baseURL,
		batchMaxItems: batchMaxItems,
	}
}

type ShortenResponse struct {
	ShortURL    string     `json:"short_url"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type BatchItemResponse struct {
	Index int `json:"index"`
	ShortenResponse
}

type BatchResponse struct {
	Results []BatchItemResponse `json:"results"`
	Errors  []domain.BatchError `json:"errors"`
	Summary domain.BatchSummary `json:"summary"`
}

type ResolveResponse struct {
	OriginalURL string     `json:"original_url"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	ClickCount  int64      `json:"click_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (h *ShortenerHandler) toResponse(url *domain.ShortURL) ShortenResponse {
	return ShortenResponse{
		ShortURL:    h.baseURL + "/" + url.ShortCode,
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		Title:       url.Title,
		Description: url.Description,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
	}
}

func (h *ShortenerHandler) ShortenURL(c *gin.Context) {
	var req domain.CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if errs := validator.Validate(&req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return
	}

	url, err := h.service.ShortenURL(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, "URL shortened successfully", h.toResponse(url))
}

func (h *ShortenerHandler) ShortenBatch(c *gin.Context) {
	var req domain.BatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if len(req.URLs) > h.batchMaxItems {
		response.BadRequest(c, fmt.Sprintf("At most %d URLs can be shortened at once", h.batchMaxItems))
		return
	}

	if errs := validator.Validate(&req); len(errs) > 0 {
		response.ValidationErrors(c, errs)
		return
	}

	result, err := h.service.ShortenBatch(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	body := BatchResponse{
		Results: make([]BatchItemResponse, 0, len(result.Results)),
		Errors:  result.Errors,
		Summary: result.Summary,
	}
	for _, r := range result.Results {
		body.Results = append(body.Results, BatchItemResponse{Index: r.Index, ShortenResponse: h.toResponse(r.URL)})
	}

	response.OK(c, fmt.Sprintf("%d of %d URLs shortened", result.Summary.Success, result.Summary.Total), body)
}

// Redirect resolves the code and sends the client on with an uncacheable 302,
// so every visit reaches the server and is counted.
func (h *ShortenerHandler) Redirect(c *gin.Context) {
	url, err := h.service.Resolve(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Redirect(http.StatusFound, url.OriginalURL)
}

func (h *ShortenerHandler) Resolve(c *gin.Context) {
	url, err := h.service.Resolve(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, "URL resolved successfully", ResolveResponse{
		OriginalURL: url.OriginalURL,
		Title:       url.Title,
		Description: url.Description,
		ClickCount:  url.ClickCount,
		ExpiresAt:   url.ExpiresAt,
	})
}

func (h *ShortenerHandler) Exists(c *gin.Context) {
	exists, err := h.service.Exists(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, "", gin.H{"exists": exists})
}

func (h *ShortenerHandler) Delete(c *gin.Context) {
	deleted, err := h.service.Delete(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, domain.ErrNotFound.Error())
		return
	}

	response.OK(c, "URL deleted successfully", gin.H{"deleted": true})
}

func writeError(c *gin.Context, err error) {
	if response.FromError(c, err) {
		return
	}

	logger.FromContext(c.Request.Context()).Error("Request failed",
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()),
	)
}
