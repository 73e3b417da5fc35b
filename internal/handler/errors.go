package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bazaar-dev/bazaar/internal/domain/cart"
	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
	"github.com/bazaar-dev/bazaar/internal/domain/order"
	"github.com/bazaar-dev/bazaar/internal/domain/product"
)

// errorResponse is the uniform failure body for every endpoint.
type errorResponse struct {
	Message string `json:"message"`
}

// respondError maps a domain error onto the HTTP taxonomy:
// invalid argument 400, not found 404, conflict 409, invalid state 422,
// forbidden 403, everything else 500.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(c.Request().Context()).Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	return c.JSON(status, errorResponse{Message: msg})
}

func statusFor(err error) int {
	var (
		cartQtyErr    *cart.InvalidQuantityError
		missingField  *coupon.MissingFieldError
		minCartErr    *coupon.MinCartValueError
		orderQtyErr   *order.InvalidQuantityError
		unknownStatus *order.UnknownStatusError
		prodValErr    *product.ValidationError
		ratingErr     *product.InvalidRatingError
		pnfErr        *order.ProductNotFoundError
		transitionErr *order.InvalidTransitionError
	)

	switch {
	case errors.As(err, &cartQtyErr),
		errors.As(err, &missingField),
		errors.As(err, &minCartErr),
		errors.As(err, &orderQtyErr),
		errors.As(err, &unknownStatus),
		errors.As(err, &prodValErr),
		errors.As(err, &ratingErr),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrNegativeAmount),
		errors.Is(err, order.ErrCancelViaUpdate):
		return http.StatusBadRequest

	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, product.ErrReviewNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrEmpty),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.As(err, &pnfErr):
		return http.StatusNotFound

	case errors.Is(err, coupon.ErrCodeExists),
		errors.Is(err, product.ErrSlugTaken):
		return http.StatusConflict

	case errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.As(err, &transitionErr):
		return http.StatusUnprocessableEntity

	case errors.Is(err, order.ErrNotOwner):
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}
