package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"openshelf/internal/apperr"
)

// statusOf returns the status the error handler will eventually write.
// Middleware runs before the app-level error handler, so a returned error
// has not been turned into a response yet.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if e, ok := apperr.As(err); ok {
		return e.Status()
	}
	return fiber.StatusInternalServerError
}
