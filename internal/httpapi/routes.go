package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	appmw "github.com/foodbridge/foodbridge/internal/middleware"
)

// Register wires the routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo, jwtSecret string) {
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	g := e.Group("")
	g.Use(appmw.JWT(jwtSecret))

	g.POST("/listings", h.CreateListing)
	g.GET("/listings/:id", h.GetListing)
	g.POST("/listings/:id/requests", h.CreateRequest)

	g.POST("/requests/:id/cancel", h.CancelRequest)
	g.POST("/requests/:id/decide", h.DecideRequest)

	g.POST("/deliveries/:id/accept", h.AcceptDelivery)
	g.POST("/deliveries/:id/status", h.UpdateDeliveryStatus)

	g.POST("/transactions/:id/rating", h.RateTransaction)

	g.GET("/analytics/daily/:date", h.DailyAnalytics)
	g.GET("/analytics/impact/:date", h.ImpactAnalytics)

	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWT(jwtSecret))
	adminGroup.Use(appmw.RequireRoles("ADMIN"))
	adminGroup.GET("/stats", h.AdminStats)
}
