package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"openshelf/internal/apperr"
	"openshelf/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Status:    "error",
		Message:   message,
		Code:      code,
		RequestID: middleware.GetRequestID(c),
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Application errors keep their message except internal ones; anything unrecognised
// is logged and answered with a generic 500.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := apperr.As(err); ok {
			status := e.Status()
			msg := e.Message
			if e.Kind == apperr.KindInternal || msg == "" {
				msg = "internal server error"
			}
			if status >= fiber.StatusInternalServerError {
				log.Error("request failed",
					slog.String("request_id", middleware.GetRequestID(c)),
					slog.String("kind", string(e.Kind)),
					slog.String("error", err.Error()),
				)
			}
			return writeError(c, status, string(e.Kind), msg)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusBadRequest:
				return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
			case fiber.StatusRequestEntityTooLarge:
				return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request entity too large")
			}
			if fe.Code < fiber.StatusInternalServerError {
				return writeError(c, fe.Code, "HTTP_"+strconv.Itoa(fe.Code), utils.StatusMessage(fe.Code))
			}
		}

		log.Error("request failed",
			slog.String("request_id", middleware.GetRequestID(c)),
			slog.String("error", err.Error()),
		)
		return writeError(c, fiber.StatusInternalServerError, string(apperr.KindInternal), "internal server error")
	}
}
