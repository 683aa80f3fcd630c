package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// RequireAdmin ensures the caller's account carries the partner flag. The
// principal is loaded per request, so the flag is never cached.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return util.NewUnauthorized("authentication required")
		}
		if !principal.User.IsPartner {
			return util.NewForbidden("administrator privileges required")
		}
		return c.Next()
	}
}
