// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/spacehire/internal/handler"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/model"
)

// Deps are the handlers and shared middleware the routes are built from.
// RateLimit guards the write endpoints anonymous callers can reach; Cache
// fronts the public listing reads.
type Deps struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     *middleware.ResponseCache

	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Bookings *handler.BookingHandler
	Listings *handler.ListingHandler
	Reviews  *handler.ReviewHandler
	Messages *handler.MessageHandler
	Admin    *handler.AdminHandler
	Users    *handler.UserHandler
}

// Register mounts every route.  Public routes carry no JWT middleware,
// POST /v1/bookings accepts both anonymous and authenticated callers, and
// everything else requires a valid access token.
func Register(e *echo.Echo, d Deps) {
	limit := d.RateLimit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	authn := middleware.JWTAuth(d.JWTSecret)
	cached := d.Cache.Middleware()

	e.GET("/healthz", d.Health.Health)

	v1 := e.Group("/v1")

	// auth
	a := v1.Group("/auth")
	a.POST("/register", d.Auth.Register, limit)
	a.POST("/login", d.Auth.Login, limit)
	a.POST("/refresh", d.Auth.Refresh, limit)
	a.POST("/logout", d.Auth.Logout, authn)
	v1.GET("/me", d.Auth.Me, authn)
	v1.PATCH("/me", d.Users.UpdateMe, authn)
	v1.GET("/me/stats", d.Users.Stats, authn)

	// listings
	s := v1.Group("/spaces")
	s.GET("", d.Listings.Search, cached)
	s.GET("/featured", d.Listings.Featured, cached)
	s.GET("/:id", d.Listings.Get, cached)
	s.GET("/:id/reviews", d.Reviews.ListBySpace, cached)
	hostOnly := middleware.RequireRole(model.RoleHost, model.RoleAdmin)
	s.POST("", d.Listings.Create, authn, hostOnly)
	s.PATCH("/:id", d.Listings.Update, authn, hostOnly)
	s.DELETE("/:id", d.Listings.Delete, authn, hostOnly)

	// bookings
	b := v1.Group("/bookings")
	b.POST("", d.Bookings.Create, middleware.OptionalJWT(d.JWTSecret), limit)
	b.GET("", d.Bookings.List, authn)
	b.GET("/:id", d.Bookings.Get, authn)
	b.PATCH("/:id/status", d.Bookings.UpdateStatus, authn)

	// reviews and messages
	v1.POST("/reviews", d.Reviews.Create, authn)
	m := v1.Group("/messages", authn)
	m.POST("", d.Messages.Send)
	m.GET("", d.Messages.List)
	m.PATCH("/:id/read", d.Messages.MarkRead)

	// users
	v1.GET("/users/:id", d.Users.Profile)
	v1.GET("/users/:id/spaces", d.Users.Spaces, cached)

	// admin
	adm := v1.Group("/admin", authn, middleware.RequireRole(model.RoleAdmin))
	adm.POST("/hosts", d.Admin.CreateHost)
	adm.GET("/users", d.Admin.ListUsers)
}
