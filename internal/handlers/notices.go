package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mascarene/tourdesk/internal/notify"
)

// NoticesHandler serves the retained user-facing notices.
type NoticesHandler struct {
	Feed *notify.Feed
}

// List handles GET /api/notices
// @Summary List recent notices
// @Description Returns the most recent user-facing notices, oldest first
// @Tags Notices
// @Produce json
// @Success 200 {array} notify.Notice
// @Router /notices [get]
func (h *NoticesHandler) List(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.Feed.Recent())
}
