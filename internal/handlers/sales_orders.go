package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/notify"
	"github.com/mascarene/tourdesk/internal/services"
	"github.com/mascarene/tourdesk/internal/stream"
	"github.com/mascarene/tourdesk/internal/utils"
	"gorm.io/gorm"
)

// SalesOrdersHandler extends the standard resource routes with order-number
// assignment at creation.
type SalesOrdersHandler struct {
	Resource[models.SalesOrder, *models.SalesOrder]
	DB     *gorm.DB
	Hub    *stream.Hub
	Notify notify.Sink
}

// Register mounts the standard routes with creation overridden.
func (h *SalesOrdersHandler) Register(router fiber.Router) {
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/", h.Create)
	router.Patch("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

// Create handles POST /api/sales-orders: stores the order, then assigns the
// next number from the company's sequence. New orders default to DRAFT.
func (h *SalesOrdersHandler) Create(c *fiber.Ctx) error {
	var order models.SalesOrder
	if err := c.BodyParser(&order); err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid sales order payload: %v", err), fiber.StatusBadRequest, "sales-orders.create")
	}
	if order.Status == "" {
		order.Status = models.OrderDraft
	}
	order.OrderNumber = 0 // always sequence-assigned

	ctx := c.UserContext()
	id, err := h.Repo.Add(ctx, &order)
	if err != nil {
		return writeError(c, err, "sales-orders.create")
	}

	// CompanyID was stamped by Add; each company numbers its own orders.
	number, err := services.NextOrderNumber(ctx, h.DB, order.CompanyID)
	if err != nil {
		h.Notify.Error("Order saved but numbering failed. Contact support.")
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "sales-orders.create")
	}

	if err := h.DB.WithContext(ctx).Model(&models.SalesOrder{}).
		Where("id = ?", id).
		Update("order_number", number).Error; err != nil {
		h.Notify.Error("Order saved but numbering failed. Contact support.")
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "sales-orders.create")
	}

	h.Hub.Publish(stream.TopicSalesOrders)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":     "Success",
		"ok":          true,
		"id":          id,
		"orderNumber": number,
	})
}
