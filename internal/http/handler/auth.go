package handler

import (
	"github.com/gofiber/fiber/v2"

	"openshelf/internal/service"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body signupRequest true "Account"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorPayload
// @Router /signup [post]
func Signup(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signupRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		res, err := svc.Signup(c.UserContext(), req.Name, req.Email, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "token": res.Token, "user": res.User})
	}
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorPayload
// @Router /login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		res, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "token": res.Token, "user": res.User})
	}
}
