// resource.go
//
// Tour operations back-office data service
//
// This file is part of tourdesk.
// tourdesk is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// tourdesk is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with tourdesk.
// If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/mascarene/tourdesk/internal/repository"
	"github.com/mascarene/tourdesk/internal/utils"
)

// Resource wires one document repository to its REST surface. Every entity
// collection gets the same five routes; entity-specific behavior (order
// numbers, currency seeding) wraps these in its own handler file.
type Resource[T any, P repository.Entity[T]] struct {
	Repo *repository.Repository[T, P]
	Name string
}

// Register mounts the standard routes on router, which is expected to carry
// the auth middleware already.
func (h *Resource[T, P]) Register(router fiber.Router) {
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/", h.Create)
	router.Patch("/:id", h.Update)
	router.Delete("/:id", h.Delete)
}

// List handles GET /api/<collection>: one tenant-scoped snapshot. Live
// updates go through the view session stream instead.
func (h *Resource[T, P]) List(c *fiber.Ctx) error {
	rows, err := h.Repo.ListOnce(c.UserContext())
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, h.Name+".list")
	}
	return c.Status(fiber.StatusOK).JSON(rows)
}

// Get handles GET /api/<collection>/:id
func (h *Resource[T, P]) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	row, err := h.Repo.Get(c.UserContext(), id)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, h.Name+".get")
	}
	if row == nil {
		return utils.NotFoundResponse(c, fmt.Sprintf("%s '%s' not found", h.Name, id))
	}
	return c.Status(fiber.StatusOK).JSON(row)
}

// Create handles POST /api/<collection>
func (h *Resource[T, P]) Create(c *fiber.Ctx) error {
	var row T
	if err := c.BodyParser(&row); err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid %s payload: %v", h.Name, err), fiber.StatusBadRequest, h.Name+".create")
	}

	id, err := h.Repo.Add(c.UserContext(), P(&row))
	if err != nil {
		return writeError(c, err, h.Name+".create")
	}
	return utils.MutationSuccessResponse(c, id)
}

// Update handles PATCH /api/<collection>/:id with a partial document
func (h *Resource[T, P]) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var partial map[string]any
	if err := c.BodyParser(&partial); err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid %s payload: %v", h.Name, err), fiber.StatusBadRequest, h.Name+".update")
	}

	if err := h.Repo.Update(c.UserContext(), id, partial); err != nil {
		return writeError(c, err, h.Name+".update")
	}
	return utils.MutationSuccessResponse(c, id)
}

// Delete handles DELETE /api/<collection>/:id
func (h *Resource[T, P]) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.Repo.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err, h.Name+".delete")
	}
	return utils.MutationSuccessResponse(c, id)
}

// writeError maps repository failures onto the response envelope.
func writeError(c *fiber.Ctx, err error, errorType string) error {
	if errors.Is(err, repository.ErrUnauthenticated) {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusForbidden, errorType)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}
