package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/services"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/utils"
	"gorm.io/gorm"
)

// CompaniesHandler extends the standard resource routes: a new company is
// seeded with the default currency set so its pickers work immediately.
type CompaniesHandler struct {
	Resource[models.Company, *models.Company]
	DB *gorm.DB
}

// Register mounts the standard routes with creation overridden.
func (h *CompaniesHandler) Register(router fiber.Router) {
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/", h.Create)
	router.Patch("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

// Create handles POST /api/companies
func (h *CompaniesHandler) Create(c *fiber.Ctx) error {
	var company models.Company
	if err := c.BodyParser(&company); err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid company payload: %v", err), fiber.StatusBadRequest, "companies.create")
	}

	ctx := c.UserContext()
	id, err := h.Repo.Add(ctx, &company)
	if err != nil {
		return writeError(c, err, "companies.create")
	}

	sess := session.FromContext(ctx)
	if err := services.SeedCurrenciesForCompany(ctx, h.DB, &company, sess); err != nil {
		// The company exists; currencies can be added by hand.
		log.Printf("currency seed for company %s failed: %v", id, err)
	}

	return utils.MutationSuccessResponse(c, id)
}
