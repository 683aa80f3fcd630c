package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NirVa-gh/AppAuth/internal/api/http/handlers"
	"github.com/NirVa-gh/AppAuth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	AdminRequests  *handlers.AdminRequestsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Listing all requests is deliberately
// open; everything else under /api requires a bearer token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)
	api.Get("/requests", cfg.Requests.ListAll)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/requests", cfg.Requests.Create)
	protected.Get("/request", cfg.Requests.ListMine)
	protected.Get("/requestsByUserID", cfg.Requests.ListByUserID)
	protected.Get("/requests/by-status/:status", auth.RequireAdmin(), cfg.AdminRequests.ListByStatus)
	protected.Get("/requests/:id", cfg.Requests.GetSingle)
	protected.Put("/requests/:id", cfg.Requests.Update)
	protected.Delete("/requests/:id", cfg.Requests.Delete)
	protected.Delete("/requestsAdmin/:id", auth.RequireAdmin(), cfg.AdminRequests.Delete)
	protected.Patch("/requestsAdminAccept/:id", auth.RequireAdmin(), cfg.AdminRequests.UpdateStatus)
}
