// Package v1 provides the HTTP handlers for the clipboard service.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/copaslink/copas/internal/domain"
	"github.com/copaslink/copas/internal/hub"
	"github.com/copaslink/copas/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	hub     *hub.Hub
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, h *hub.Hub) *Handler {
	return &Handler{
		service: service,
		hub:     h,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/clipboards", h.CreateClipboard)
	e.GET("/v1/clipboards/:id", h.GetClipboard)
	e.DELETE("/v1/clipboards/:id", h.RemoveClipboard)
	e.PUT("/v1/clipboards/:id/password", h.SetPassword)

	e.GET("/v1/clipboards/:id/items", h.GetItems)
	e.PUT("/v1/clipboards/:id/items", h.ReplaceItems)

	e.GET("/v1/clipboards/:id/ws", h.AttachViewer)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// writeError maps service errors onto HTTP responses.
func writeError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": verr.Message,
			"code":  verr.Code,
		})
	}
	if errors.Is(err, domain.ErrAllocationExhausted) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
