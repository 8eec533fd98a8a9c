package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/fulfillment"
	"github.com/foodbridge/foodbridge/internal/request"
)

type createRequestBody struct {
	Quantity   decimal.Decimal `json:"quantity"`
	PickupDate time.Time       `json:"pickup_date"`
}

// CreateRequest - requester claims part of a listing's remaining quantity.
func (h *Handler) CreateRequest(c echo.Context) error {
	requesterID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body createRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	req, err := h.Requests.Create(c.Request().Context(), request.CreateInput{
		ListingID:   c.Param("id"),
		RequesterID: requesterID,
		Quantity:    body.Quantity,
		PickupDate:  body.PickupDate,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}

// CancelRequest - requester withdraws a pending request.
func (h *Handler) CancelRequest(c echo.Context) error {
	actorID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req, err := h.Requests.Cancel(c.Request().Context(), c.Param("id"), actorID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

type decideBody struct {
	Action string `json:"action"`
}

// DecideRequest - supplier approves or rejects a pending request.
func (h *Handler) DecideRequest(c echo.Context) error {
	actorID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body decideBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Fulfillment.Decide(c.Request().Context(), c.Param("id"), actorID, fulfillment.Action(body.Action))
	if err != nil {
		return fail(c, err)
	}

	resp := echo.Map{"request": res.Request}
	if res.Transaction != nil {
		resp["transaction"] = res.Transaction
		resp["delivery"] = res.Delivery
	}
	return c.JSON(http.StatusOK, resp)
}
