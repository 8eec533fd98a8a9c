package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func parseDate(c echo.Context) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", c.Param("date"))
	return d, err == nil
}

// DailyAnalytics recomputes and returns the counters for a calendar day.
func (h *Handler) DailyAnalytics(c echo.Context) error {
	date, ok := parseDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	a, err := h.Analytics.RecomputeDaily(c.Request().Context(), date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// ImpactAnalytics recomputes and returns the impact metrics for a day.
func (h *Handler) ImpactAnalytics(c echo.Context) error {
	date, ok := parseDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	m, err := h.Analytics.RecomputeImpact(c.Request().Context(), date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// AdminStats returns point-in-time platform totals.
func (h *Handler) AdminStats(c echo.Context) error {
	m, err := h.Analytics.SystemStats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
