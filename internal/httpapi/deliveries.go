package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodbridge/foodbridge/internal/domain"
)

// AcceptDelivery - courier claims a pending assignment.
func (h *Handler) AcceptDelivery(c echo.Context) error {
	courierID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	d, err := h.Deliveries.Accept(c.Request().Context(), c.Param("id"), courierID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

type deliveryStatusBody struct {
	Status string `json:"status"`
}

// UpdateDeliveryStatus - assigned courier advances the delivery state
// machine (IN_TRANSIT, DELIVERED, FAILED).
func (h *Handler) UpdateDeliveryStatus(c echo.Context) error {
	courierID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body deliveryStatusBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	d, err := h.Deliveries.UpdateStatus(c.Request().Context(), c.Param("id"), courierID, domain.DeliveryStatus(body.Status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}
