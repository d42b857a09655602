package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/tests/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://localhost:8080"

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestShortenURL_Success(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.POST("/api/shorten", handler.ShortenURL)

	reqBody := `{"url": "https://example.com"}`
	req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	mockURL := &domain.ShortURL{
		ID:          1,
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   time.Now().UTC(),
	}

	mockService.On("ShortenURL", mock.Anything, mock.MatchedBy(func(req *domain.CreateURLRequest) bool {
		return req.OriginalURL == "https://example.com"
	})).Return(mockURL, nil).Once()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "http://localhost:8080/abc123", data["short_url"])
	assert.Equal(t, "abc123", data["short_code"])
	assert.Equal(t, "https://example.com", data["original_url"])
	assert.Nil(t, data["expires_at"])

	mockService.AssertExpectations(t)
}

func TestShortenURL_InvalidJSON(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.POST("/api/shorten", handler.ShortenURL)

	req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(`{invalid json}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.AssertNotCalled(t, "ShortenURL", mock.Anything, mock.Anything)
}

func TestShortenURL_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing url", body: `{"custom_code": "mylink"}`, field: "OriginalURL"},
		{name: "invalid url", body: `{"url": "not-a-valid-url"}`, field: "OriginalURL"},
		{name: "bad custom code", body: `{"url": "https://example.com", "custom_code": "my-link"}`, field: "CustomCode"},
		{name: "expiry out of range", body: `{"url": "https://example.com", "expires_in_days": 400}`, field: "ExpiresInDays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.MockShortenerService)
			handler := NewShortenerHandler(mockService, testBaseURL, 10)
			router := setupTestRouter()
			router.POST("/api/shorten", handler.ShortenURL)

			req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeBody(t, w)
			errs := body["errors"].([]interface{})
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].(map[string]interface{})["field"])

			mockService.AssertNotCalled(t, "ShortenURL", mock.Anything, mock.Anything)
		})
	}
}

func TestShortenURL_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid url", fmt.Errorf("%w: domain is on the denylist", domain.ErrInvalidURL), http.StatusBadRequest},
		{"invalid code", domain.ErrInvalidCodeFormat, http.StatusBadRequest},
		{"invalid expiry", domain.ErrInvalidExpiry, http.StatusBadRequest},
		{"conflict", domain.ErrCodeAlreadyExists, http.StatusConflict},
		{"exhausted", domain.ErrAllocationExhausted, http.StatusServiceUnavailable},
		{"store failure", &domain.StoreError{Op: "insert", Err: errors.New("database error")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.MockShortenerService)
			handler := NewShortenerHandler(mockService, testBaseURL, 10)
			router := setupTestRouter()
			router.POST("/api/shorten", handler.ShortenURL)

			req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(`{"url": "https://example.com"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			mockService.On("ShortenURL", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)

			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "database error")
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestShortenURL_WithCustomCodeAndExpiry(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.POST("/api/shorten", handler.ShortenURL)

	reqBody := `{"url": "https://example.com", "custom_code": "mylink", "expires_in_days": 7, "title": "Docs"}`
	req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	expiresAt := time.Now().Add(7 * 24 * time.Hour)
	mockURL := &domain.ShortURL{
		ShortCode:   "mylink",
		OriginalURL: "https://example.com",
		Title:       "Docs",
		ExpiresAt:   &expiresAt,
	}

	mockService.On("ShortenURL", mock.Anything, mock.MatchedBy(func(req *domain.CreateURLRequest) bool {
		return req.CustomCode == "mylink" && req.ExpiresInDays == 7 && req.Title == "Docs"
	})).Return(mockURL, nil).Once()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "mylink", data["short_code"])
	assert.Equal(t, "Docs", data["title"])
	assert.NotNil(t, data["expires_at"])

	mockService.AssertExpectations(t)
}

func TestShortenBatch_Success(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.POST("/api/batch-shorten", handler.ShortenBatch)

	reqBody := `{"urls": [{"url": "https://example.com/a"}, {"url": "https://malware.com"}], "expires_in_days": 2}`
	req := httptest.NewRequest("POST", "/api/batch-shorten", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	mockService.On("ShortenBatch", mock.Anything, mock.MatchedBy(func(req *domain.BatchCreateRequest) bool {
		return len(req.URLs) == 2 && req.ExpiresInDays == 2
	})).Return(&domain.BatchCreateResult{
		Results: []domain.BatchResult{
			{Index: 0, URL: &domain.ShortURL{ShortCode: "aaa111", OriginalURL: "https://example.com/a"}},
		},
		Errors: []domain.BatchError{
			{Index: 1, OriginalURL: "https://malware.com", Message: "invalid url: domain is on the denylist"},
		},
		Summary: domain.BatchSummary{Total: 2, Success: 1, Failed: 1},
	}, nil).Once()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	results := data["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, float64(0), first["index"])
	assert.Equal(t, "http://localhost:8080/aaa111", first["short_url"])

	errs := data["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "invalid url: domain is on the denylist", errs[0].(map[string]interface{})["error"])

	summary := data["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["failed"])

	mockService.AssertExpectations(t)
}

func TestShortenBatch_TooManyItems(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 2)
	router := setupTestRouter()
	router.POST("/api/batch-shorten", handler.ShortenBatch)

	reqBody := `{"urls": [{"url": "https://a.com"}, {"url": "https://b.com"}, {"url": "https://c.com"}]}`
	req := httptest.NewRequest("POST", "/api/batch-shorten", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "At most 2")
	mockService.AssertNotCalled(t, "ShortenBatch", mock.Anything, mock.Anything)
}

func TestShortenBatch_Empty(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.POST("/api/batch-shorten", handler.ShortenBatch)

	req := httptest.NewRequest("POST", "/api/batch-shorten", strings.NewReader(`{"urls": []}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ShortenBatch", mock.Anything, mock.Anything)
}

func TestRedirect_Success(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.GET("/:shortCode", handler.Redirect)

	req := httptest.NewRequest("GET", "/abc123", nil)
	w := httptest.NewRecorder()

	mockURL := &domain.ShortURL{
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
	}

	mockService.On("Resolve", mock.Anything, "abc123").Return(mockURL, nil).Once()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))

	mockService.AssertExpectations(t)
}

func TestRedirect_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid code", domain.ErrInvalidCodeFormat, http.StatusBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"expired", domain.ErrExpired, http.StatusGone},
		{"store failure", &domain.StoreError{Op: "get", Err: errors.New("database connection failed")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.MockShortenerService)
			handler := NewShortenerHandler(mockService, testBaseURL, 10)
			router := setupTestRouter()
			router.GET("/:shortCode", handler.Redirect)

			req := httptest.NewRequest("GET", "/abc123", nil)
			w := httptest.NewRecorder()

			mockService.On("Resolve", mock.Anything, "abc123").Return(nil, tt.err).Once()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Location"))
			mockService.AssertExpectations(t)
		})
	}
}

func TestResolve_JSON(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.GET("/api/urls/:shortCode", handler.Resolve)

	mockService.On("Resolve", mock.Anything, "abc123").Return(&domain.ShortURL{
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		Title:       "Example",
		Description: "An example",
		ClickCount:  3,
	}, nil).Once()

	req := httptest.NewRequest("GET", "/api/urls/abc123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "https://example.com", data["original_url"])
	assert.Equal(t, "Example", data["title"])
	assert.Equal(t, "An example", data["description"])
	assert.Equal(t, float64(3), data["click_count"])

	mockService.AssertExpectations(t)
}

func TestExists(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.GET("/api/exists/:shortCode", handler.Exists)

	mockService.On("Exists", mock.Anything, "taken1").Return(true, nil).Once()
	mockService.On("Exists", mock.Anything, "a-b").Return(false, domain.ErrInvalidCodeFormat).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/exists/taken1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["data"].(map[string]interface{})["exists"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/exists/a-b", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	mockService := new(mocks.MockShortenerService)
	handler := NewShortenerHandler(mockService, testBaseURL, 10)
	router := setupTestRouter()
	router.DELETE("/api/urls/:shortCode", handler.Delete)

	mockService.On("Delete", mock.Anything, "del123").Return(true, nil).Once()
	mockService.On("Delete", mock.Anything, "gone12").Return(false, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/urls/del123", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["data"].(map[string]interface{})["deleted"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/urls/gone12", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}
