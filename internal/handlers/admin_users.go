package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mascarene/tourdesk/internal/config"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/services"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/stream"
	"github.com/mascarene/tourdesk/internal/utils"
	"gorm.io/gorm"
)

// AdminUsersHandler creates back-office accounts: an Authorizer signup plus
// the profile document binding the account to a company. Admin-only; the
// company is taken from the request, not from the admin's own profile, so a
// PLANNING admin can provision users for its child companies.
type AdminUsersHandler struct {
	Cfg *config.Config
	DB  *gorm.DB
	Hub *stream.Hub
}

// CreateUserRequest is the admin user creation payload
type CreateUserRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Name      string   `json:"name"`
	CompanyID string   `json:"companyId"`
	Roles     []string `json:"roles"`
}

// Create handles POST /api/admin/users
// @Summary Create a back-office user
// @Description Registers an account with the auth service and writes its company-bound profile
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User to create"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /admin/users [post]
func (h *AdminUsersHandler) Create(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid user payload: %v", err), fiber.StatusBadRequest, "admin.users.create")
	}
	if req.Email == "" || req.Password == "" || req.CompanyID == "" {
		return utils.ErrorResponse(c, "email, password and companyId are required", fiber.StatusBadRequest, "admin.users.create")
	}

	ctx := c.UserContext()
	sess := session.FromContext(ctx)
	if sess == nil {
		return utils.ErrorResponse(c, "Not authenticated", fiber.StatusForbidden, "admin.users.create")
	}

	var company models.Company
	if err := h.DB.WithContext(ctx).Where("id = ?", req.CompanyID).First(&company).Error; err != nil {
		return utils.NotFoundResponse(c, fmt.Sprintf("Company '%s' not found", req.CompanyID))
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{"user"}
	}

	authUserID, err := services.SignupUser(h.Cfg, req.Email, req.Password, req.Name, roles)
	if err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "admin.users.create")
	}

	// Written directly rather than through the generic repository: the
	// profile's company fields come from the target company, not from the
	// acting admin's tenant.
	now := time.Now().UTC()
	profile := models.UserProfile{
		AuthUserID: authUserID,
		Name:       req.Name,
		Email:      req.Email,
		Roles:      roles,
	}
	doc := profile.Doc()
	doc.ID = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.DocumentStatus = models.StatusActive
	doc.CreatedBy = sess.UserID
	doc.CreatedByName = sess.DisplayName
	doc.UpdatedBy = sess.UserID
	doc.UpdatedByName = sess.DisplayName
	doc.CompanyID = company.ID
	doc.CompanyName = company.Name
	doc.CompanyType = company.Type

	if err := h.DB.WithContext(ctx).Create(&profile).Error; err != nil {
		return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "admin.users.create")
	}

	h.Hub.Publish(stream.TopicUsers)

	return utils.MutationSuccessResponse(c, profile.ID)
}
