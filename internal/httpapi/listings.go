package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/foodbridge/foodbridge/internal/domain"
)

type createListingRequest struct {
	Title                string           `json:"title"`
	Quantity             decimal.Decimal  `json:"quantity"`
	UnitPrice            *decimal.Decimal `json:"unit_price"`
	MinimumQuantity      *decimal.Decimal `json:"minimum_quantity"`
	ListingType          string           `json:"listing_type"`
	RequiresVerification bool             `json:"requires_verification"`
	ExpiryDate           time.Time        `json:"expiry_date"`
}

// CreateListing - supplier publishes a listing.
func (h *Handler) CreateListing(c echo.Context) error {
	supplierID, ok := userID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
	}

	listingType := domain.ListingType(req.ListingType)
	if listingType == "" {
		listingType = domain.ListingOpen
	}
	if listingType != domain.ListingOpen && listingType != domain.ListingNonprofitOnly {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown listing_type"})
	}

	now := time.Now()
	l := &domain.Listing{
		ID:                   uuid.New().String(),
		SupplierID:           supplierID,
		Title:                req.Title,
		Quantity:             req.Quantity,
		UnitPrice:            req.UnitPrice,
		MinimumQuantity:      req.MinimumQuantity,
		ListingType:          listingType,
		RequiresVerification: req.RequiresVerification,
		Status:               domain.ListingActive,
		ExpiryDate:           req.ExpiryDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := h.Store.CreateListing(c.Request().Context(), l); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// GetListing returns a listing with its derived remaining quantity.
func (h *Handler) GetListing(c echo.Context) error {
	ctx := c.Request().Context()
	l, err := h.Store.GetListing(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	remaining, err := h.Ledger.RemainingQuantity(ctx, l.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"listing":            l,
		"remaining_quantity": remaining,
	})
}
