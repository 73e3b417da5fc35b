package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
)

// CreateCoupon creates a new discount rule (admin).
func (h *Handler) CreateCoupon(c echo.Context) error {
	var req createCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}

	created, err := h.coupons.Create(c.Request().Context(), coupon.CreateRequest{
		Code:          req.Code,
		DiscountType:  coupon.DiscountType(req.DiscountType),
		DiscountValue: req.DiscountValue,
		MinCartValue:  req.MinCartValue,
		ExpiryDate:    req.ExpiryDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toCouponDTO(created))
}

// ListCoupons returns all coupons (admin).
func (h *Handler) ListCoupons(c echo.Context) error {
	coupons, err := h.coupons.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	out := make([]couponDTO, len(coupons))
	for i := range coupons {
		out[i] = toCouponDTO(&coupons[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"coupons": out})
}

// DeleteCoupon removes a coupon by id (admin).
func (h *Handler) DeleteCoupon(c echo.Context) error {
	if err := h.coupons.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "coupon deleted"})
}

// ApplyCoupon previews a coupon against the caller's cart. Nothing is
// persisted; order creation re-derives the discount.
func (h *Handler) ApplyCoupon(c echo.Context) error {
	var req applyCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}
	if req.CouponCode == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "coupon_code is required"})
	}

	quote, err := h.coupons.Preview(c.Request().Context(), callerID(c), req.CouponCode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, couponQuoteResponse{
		Subtotal:   quote.Subtotal,
		Discount:   quote.Discount,
		TotalPrice: quote.TotalPrice,
		CouponCode: quote.CouponCode,
	})
}
