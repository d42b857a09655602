package handler

import (
	"context"
	"strconv"

	"github.com/Kevin42127/TinyLink/internal/domain"
	"github.com/Kevin42127/TinyLink/pkg/response"
	"github.com/gin-gonic/gin"
)

type AdminService interface {
	List(ctx context.Context, limit, offset int) (*domain.URLList, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type Sweeper interface {
	SweepNow(ctx context.Context) (int64, error)
}

type AdminHandler struct {
	service      AdminService
	sweeper      Sweeper
	defaultLimit int
	maxLimit     int
}

func NewAdminHandler(service AdminService, sweeper Sweeper, defaultLimit, maxLimit int) *AdminHandler {
	return &AdminHandler{
		service:      service,
		sweeper:      sweeper,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// History lists recent links. limit falls back to the default when missing or
// invalid and is clamped to the maximum.
func (h *AdminHandler) History(c *gin.Context) {
	limit := h.defaultLimit
	if limitParam := c.Query("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	offset := 0
	if offsetParam := c.Query("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	list, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, "History retrieved successfully", list)
}

func (h *AdminHandler) DeleteAll(c *gin.Context) {
	removed, err := h.service.DeleteAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, "All URLs deleted", gin.H{"deleted_count": removed})
}

func (h *AdminHandler) Sweep(c *gin.Context) {
	removed, err := h.sweeper.SweepNow(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, "Expired URLs swept", gin.H{"removed": removed})
}
