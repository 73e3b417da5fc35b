package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bazaar-dev/bazaar/internal/domain/order"
)

// CreateOrder places a new order from the submitted lines. Prices and
// product names are snapshotted from the catalog, not taken from the client.
func (h *Handler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}

	items := make([]order.ItemRequest, len(req.OrderItems))
	for i, item := range req.OrderItems {
		items[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.Create(c.Request().Context(), order.CreateRequest{
		UserID: callerID(c),
		ShippingInfo: order.ShippingInfo{
			Address: req.ShippingInfo.Address,
			City:    req.ShippingInfo.City,
			State:   req.ShippingInfo.State,
			Country: req.ShippingInfo.Country,
			PinCode: req.ShippingInfo.PinCode,
			PhoneNo: req.ShippingInfo.PhoneNo,
		},
		Items:         items,
		PaymentInfo:   order.PaymentInfo{ID: req.PaymentInfo.ID, Status: req.PaymentInfo.Status},
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderDTO(o))
}

// ListMyOrders returns the caller's order history.
func (h *Handler) ListMyOrders(c echo.Context) error {
	orders, err := h.orders.ListMine(c.Request().Context(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}

	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": out})
}

// GetOrder returns a single order. Non-admins may only read their own.
func (h *Handler) GetOrder(c echo.Context) error {
	o, err := h.orders.GetByID(c.Request().Context(), callerID(c), callerRole(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderDTO(o))
}

// CancelOrder cancels the caller's own processing order and restores stock.
func (h *Handler) CancelOrder(c echo.Context) error {
	o, err := h.orders.Cancel(c.Request().Context(), callerID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderDTO(o))
}

// ListAllOrders returns every order plus the revenue total (admin).
func (h *Handler) ListAllOrders(c echo.Context) error {
	res, err := h.orders.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}

	out := make([]orderDTO, len(res.Orders))
	for i := range res.Orders {
		out[i] = toOrderDTO(&res.Orders[i])
	}
	return c.JSON(http.StatusOK, orderListResponse{Orders: out, TotalAmount: res.TotalAmount})
}

// UpdateOrderStatus advances an order to Shipped or Delivered (admin).
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}

	o, err := h.orders.UpdateStatus(c.Request().Context(), c.Param("id"), order.Status(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderDTO(o))
}

// DeleteOrder removes an order and restores its stock (admin).
func (h *Handler) DeleteOrder(c echo.Context) error {
	if err := h.orders.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "order deleted"})
}
