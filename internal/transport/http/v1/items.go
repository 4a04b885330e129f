package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/copaslink/copas/internal/domain"
)

// GetItems returns the stored items for a clipboard, newest first. Unknown
// ids yield an empty list rather than an error.
// GET /v1/clipboards/:id/items
func (h *Handler) GetItems(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !domain.ValidID(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	items, err := h.service.GetItems(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []string{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// ReplaceItemsRequest carries the full replacement item set.
type ReplaceItemsRequest struct {
	Items []string `json:"items"`
}

// ReplaceItems replaces the full item set for a clipboard. Entries beyond
// the cap are dropped from the tail.
// PUT /v1/clipboards/:id/items
func (h *Handler) ReplaceItems(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !domain.ValidID(id) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "clipboard not found"})
	}

	var req ReplaceItemsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.service.ReplaceItems(ctx, id, req.Items); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":         true,
		"item_count": min(len(req.Items), domain.MaxItems),
	})
}
