package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"openshelf/internal/apperr"
	"openshelf/internal/model"
)

// UserIDLocalKey is the locals key holding the authenticated model.UserID.
const UserIDLocalKey = "user_id"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.UserID, error)
}

// Auth rejects requests without a valid "Authorization: Bearer <token>" header.
func Auth(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return apperr.Unauthorized("Unauthorized", nil)
		}
		uid, err := a.Authenticate(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			return err
		}
		c.Locals(UserIDLocalKey, uid)
		return c.Next()
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *fiber.Ctx) model.UserID {
	uid, _ := c.Locals(UserIDLocalKey).(model.UserID)
	return uid
}
