package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/NirVa-gh/AppAuth/internal/api/dto"
	"github.com/NirVa-gh/AppAuth/internal/auth"
	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/internal/service"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// AdminRequestsHandler exposes the partner-only request endpoints.
type AdminRequestsHandler struct {
	service *service.RequestService
}

// NewAdminRequestsHandler constructs handler.
func NewAdminRequestsHandler(requestService *service.RequestService) *AdminRequestsHandler {
	return &AdminRequestsHandler{service: requestService}
}

// Delete handles DELETE /api/requestsAdmin/:id.
func (h *AdminRequestsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteAsAdmin(c.UserContext(), principal.User.ID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("request %d deleted by administrator", id),
	})
}

// UpdateStatus handles PATCH /api/requestsAdminAccept/:id.
func (h *AdminRequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	request, err := h.service.UpdateStatus(c.UserContext(), principal.User.ID, id, req.Status)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("request %d status changed to %q", id, request.Status),
	})
}

// ListByStatus handles GET /api/requests/by-status/:status.
func (h *AdminRequestsHandler) ListByStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	status := domain.RequestStatus(c.Params("status"))
	requests, err := h.service.ListByStatus(c.UserContext(), principal.User.ID, status)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"requests": dto.NewRequestViews(requests),
	})
}
