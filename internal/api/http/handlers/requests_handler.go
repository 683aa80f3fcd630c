package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/NirVa-gh/AppAuth/internal/api/dto"
	"github.com/NirVa-gh/AppAuth/internal/auth"
	"github.com/NirVa-gh/AppAuth/internal/service"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// RequestsHandler manages user-facing request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	request, err := h.service.Create(c.UserContext(), principal.User.ID, service.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "request created",
		"request": dto.NewRequestView(request),
	})
}

// GetSingle handles GET /api/requests/:id. Read access requires only
// authentication; ownership is not checked on this path.
func (h *RequestsHandler) GetSingle(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	request, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"request": dto.NewRequestView(request),
	})
}

// ListAll handles GET /api/requests. Open to unauthenticated callers.
func (h *RequestsHandler) ListAll(c *fiber.Ctx) error {
	requests, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"requests": dto.NewRequestViews(requests),
	})
}

// ListMine handles GET /api/request, scoped to the token's identity.
func (h *RequestsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	requests, err := h.service.ListForOwner(c.UserContext(), principal.User.ID, nil)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"requests": dto.NewRequestViews(requests),
	})
}

// ListByUserID handles GET /api/requestsByUserID. The optional user_id query
// parameter must match the caller.
func (h *RequestsHandler) ListByUserID(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	var requestedUserID *int64
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return util.NewValidationError("user_id must be an integer", nil)
		}
		requestedUserID = &parsed
	}

	requests, err := h.service.ListForOwner(c.UserContext(), principal.User.ID, requestedUserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"requests": dto.NewRequestViews(requests),
	})
}

// Update handles PUT /api/requests/:id. Like GetSingle, this path checks
// authentication only, not ownership.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	request, err := h.service.UpdateContent(c.UserContext(), id, req.Title, req.Content)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "request updated",
		"request": dto.NewRequestView(request),
	})
}

// Delete handles DELETE /api/requests/:id, owner only.
func (h *RequestsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), principal.User.ID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "request deleted",
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewValidationError("id must be a positive integer", nil)
	}
	return id, nil
}
