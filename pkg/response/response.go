package response

import (
	"errors"
	"net/http"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/gin-gonic/gin"
)

// Response is the envelope for every JSON body the API returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error:   message,
	})
}

func ValidationErrors(c *gin.Context, errors []ValidationError) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  errors,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// errorStatuses maps engine errors to HTTP statuses; the first match wins.
var errorStatuses = []struct {
	target error
	status int
}{
	{domain.ErrInvalidURL, http.StatusBadRequest},
	{domain.ErrInvalidCodeFormat, http.StatusBadRequest},
	{domain.ErrInvalidExpiry, http.StatusBadRequest},
	{domain.ErrCodeAlreadyExists, http.StatusConflict},
	{domain.ErrAllocationExhausted, http.StatusServiceUnavailable},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrExpired, http.StatusGone},
}

// StatusFor returns the HTTP status for err, or 500 when err is not an
// engine error.
func StatusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// FromError writes err with its mapped status. Unmapped errors are reported
// as a generic 500 so internal details never reach the client; it returns
// false in that case so the caller can log err.
func FromError(c *gin.Context, err error) bool {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalServerError(c, "Internal server error")
		return false
	}

	Error(c, status, err.Error())
	return true
}
