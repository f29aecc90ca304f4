package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/praiamar/beach-tent-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/praiamar/beach-tent-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login
	// and the two refresh variants.  Each handler is responsible for
	// generating or exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only issues a new
	// access token and leaves the refresh token untouched.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a JSON body with a `refresh_token` and invalidates it.
	// It does not require JWT authentication.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  Both roles may query
	// their own identity.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "CUSTOMER"))
	auth.GET("/me", a.Me)

	// Kept for clients that call logout at the top level.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// inspect tents, their weekly hours and their catalogs before registering.
// No JWT or role middleware applies here; the caller may attach caching
// and rate limiting middleware on the Echo instance itself.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler) {
	// Expose the list of all tents with their review aggregate.
	e.GET("/v1/tents", b.ListTents)
	// Tent details by id.
	e.GET("/v1/tents/:id", b.GetTent)
	// Weekly operating hours used to validate reservation slots.
	e.GET("/v1/tents/:id/hours", b.GetHours)
	// Active catalog of rental and menu items.
	e.GET("/v1/tents/:id/catalog", b.GetCatalog)
}

// RegisterCustomer registers the reservation lifecycle endpoints available
// to customers.  All routes require a valid access token with the CUSTOMER
// role.  State-changing routes run their database work inside a single
// transaction in the handler layer.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, r *handler.ReviewHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("CUSTOMER"))
	// Create a reservation: validates the slot and the cart, folds any
	// outstanding balance into the total and returns the check-in code.
	g.POST("/reservations", h.CreateReservation)
	// The caller's reservations, newest first, with ledger lines.
	g.GET("/my-reservations", h.ListReservations)
	// Outstanding penalty balance awaiting the next reservation.
	g.GET("/my-balance", h.GetBalance)
	g.GET("/reservations/:id", h.GetReservation)
	g.GET("/reservations/:id/chat", h.GetChat)
	// Cancel before check-in.  Late cancellation carries a fee.
	g.POST("/reservations/:id/cancel", h.CancelReservation)
	// Append menu items directly to the order after check-in.
	g.POST("/reservations/:id/items", h.AddItems)
	// Propose menu items that the owner must accept before they bill.
	g.POST("/reservations/:id/proposals", h.ProposeItems)
	// Rate a completed visit, once.
	g.POST("/reservations/:id/review", r.Create)
}

// RegisterOwner registers the endpoints tent owners use to drive
// reservations through check-in, the order ledger and close-out.  All
// routes require the OWNER role; each handler additionally verifies the
// reservation belongs to one of the caller's tents.
func RegisterOwner(e *echo.Echo, h *handler.OwnerHandler, jwtSecret string) {
	g := e.Group("/v1/owner")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("OWNER"))
	// Reservations of one of the caller's tents, via ?tent_id=.
	g.GET("/reservations", h.ListByTent)
	g.GET("/reservations/:id", h.GetReservation)
	g.GET("/reservations/:id/chat", h.GetChat)
	// Lifecycle transitions.
	g.POST("/reservations/:id/checkin", h.CheckIn)
	g.POST("/reservations/:id/payment", h.RequestPayment)
	g.POST("/reservations/:id/complete", h.Complete)
	g.POST("/reservations/:id/cancel", h.Cancel)
	g.POST("/reservations/:id/no-show", h.NoShow)
	// Order ledger operations.
	g.POST("/reservations/:id/proposals/accept", h.AcceptProposals)
	g.POST("/reservations/:id/proposals/reject", h.RejectProposals)
	g.PATCH("/reservations/:id/items/:itemID", h.AdjustQuantity)
	g.PATCH("/reservations/:id/items/:itemID/delivery", h.SetDelivery)
}
