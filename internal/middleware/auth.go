package middleware

import (
	"fmt"
	"strings"

	"github.com/authorizerdev/authorizer-go"
	"github.com/gofiber/fiber/v2"
	"github.com/mascarene/tourdesk/internal/services"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/types"
)

// AuthAdmin validates that the request has admin role authorization
func AuthAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, []string{"admin"}, "data.authorization.admin")
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, []string{"user"}, "data.authorization.user")
	}
}

// authorize performs the authorization check and threads the acting
// identity into the request context for the repositories to stamp with
func authorize(c *fiber.Ctx, roles []string, errorType string) error {
	// Get session cookie
	cookie := c.Cookies("cookie_session")
	if cookie == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	// Validate session
	user, err := services.ValidateSession(cookie, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	// Set user data in context
	c.Locals("user", user)
	sess := &session.Session{
		UserID:      user.ID,
		DisplayName: displayName(user),
	}
	c.SetUserContext(session.NewContext(c.UserContext(), sess))

	return c.Next()
}

// displayName assembles a human-readable name, falling back to the email
// when the profile carries no name claims.
func displayName(user *authorizer.User) string {
	var parts []string
	if user.GivenName != nil && *user.GivenName != "" {
		parts = append(parts, *user.GivenName)
	}
	if user.FamilyName != nil && *user.FamilyName != "" {
		parts = append(parts, *user.FamilyName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return user.Email
}
