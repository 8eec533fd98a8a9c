// Package httpapi exposes the fulfillment workflow over HTTP. Handlers
// translate between JSON and the services; every domain error kind maps
// to a distinct status code so InsufficientInventory, Forbidden, and
// InvalidTransition are never masked by a generic 500.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/foodbridge/foodbridge/internal/analytics"
	"github.com/foodbridge/foodbridge/internal/delivery"
	"github.com/foodbridge/foodbridge/internal/domain"
	"github.com/foodbridge/foodbridge/internal/fulfillment"
	"github.com/foodbridge/foodbridge/internal/inventory"
	"github.com/foodbridge/foodbridge/internal/rating"
	"github.com/foodbridge/foodbridge/internal/request"
	"github.com/foodbridge/foodbridge/internal/store"
)

type Handler struct {
	Store       store.Store
	Ledger      *inventory.Ledger
	Requests    *request.Service
	Fulfillment *fulfillment.Service
	Deliveries  *delivery.Service
	Ratings     *rating.Service
	Analytics   *analytics.Service
}

func userID(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok && id != ""
}

func fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInsufficientInventory):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
