package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/NirVa-gh/AppAuth/internal/api/dto"
	"github.com/NirVa-gh/AppAuth/internal/service"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// UsersHandler exposes registration and login endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /api/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	if err := requireParsableBody(c); err != nil {
		return err
	}

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, token, _, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Success: true,
		Message: "registration complete",
		Token:   token,
		UserID:  user.ID,
	})
}

// Login handles POST /api/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	if err := requireParsableBody(c); err != nil {
		return err
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, token, _, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		Success:   true,
		Message:   "login successful",
		Token:     token,
		UserID:    user.ID,
		IsPartner: &user.IsPartner,
	})
}

// requireParsableBody rejects bodies that are neither JSON nor form encoded.
func requireParsableBody(c *fiber.Ctx) error {
	contentType := strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType)))
	for _, allowed := range []string{
		fiber.MIMEApplicationJSON,
		fiber.MIMEApplicationForm,
		fiber.MIMEMultipartForm,
	} {
		if strings.HasPrefix(contentType, allowed) {
			return nil
		}
	}
	return util.NewUnsupportedMedia("expected application/json or form data")
}
