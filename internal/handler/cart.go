package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetCart returns the caller's cart, creating an empty one on first access.
func (h *Handler) GetCart(c echo.Context) error {
	crt, err := h.carts.GetOrCreate(c.Request().Context(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartDTO(crt))
}

// UpsertCartItem sets the quantity of a product line in the caller's cart.
func (h *Handler) UpsertCartItem(c echo.Context) error {
	var req upsertCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	if req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "product_id is required"})
	}

	crt, err := h.carts.UpsertItem(c.Request().Context(), callerID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartDTO(crt))
}

// RemoveCartItem drops a product line from the caller's cart.
func (h *Handler) RemoveCartItem(c echo.Context) error {
	crt, err := h.carts.RemoveItem(c.Request().Context(), callerID(c), c.Param("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartDTO(crt))
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(c echo.Context) error {
	crt, err := h.carts.Clear(c.Request().Context(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartDTO(crt))
}
