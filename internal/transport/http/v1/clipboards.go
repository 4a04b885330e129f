package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/copaslink/copas/internal/domain"
)

// CreateClipboard allocates a new clipboard and returns its share id.
// POST /v1/clipboards
func (h *Handler) CreateClipboard(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := h.service.Allocate(ctx)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id})
}

// GetClipboard returns the session record for a clipboard, password
// included; clients holding a locked link compare the password locally
// before fetching items.
// GET /v1/clipboards/:id
func (h *Handler) GetClipboard(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !domain.ValidID(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	session, err := h.service.GetSessionInfo(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	return c.JSON(http.StatusOK, session)
}

// SetPasswordRequest sets or clears the clipboard password.
type SetPasswordRequest struct {
	Password *string `json:"password"`
}

// SetPassword sets or clears the clipboard password.
// PUT /v1/clipboards/:id/password
func (h *Handler) SetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !domain.ValidID(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	var req SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.service.SetPassword(ctx, id, req.Password); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

// RemoveClipboard deletes a clipboard and its items.
// DELETE /v1/clipboards/:id
func (h *Handler) RemoveClipboard(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !domain.ValidID(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	if err := h.service.Remove(ctx, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}
