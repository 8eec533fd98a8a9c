package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type rateBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// RateTransaction - a transaction party rates the counterparty, once.
func (h *Handler) RateTransaction(c echo.Context) error {
	raterID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body rateBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	r, err := h.Ratings.Rate(c.Request().Context(), c.Param("id"), raterID, body.Rating, body.Comment)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}
