// Package handler exposes the domain services over HTTP via echo. It owns
// request binding, the identity gate, and the domain-error to status-code
// mapping; all business rules live in the domain packages.
package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bazaar-dev/bazaar/internal/auth"
	"github.com/bazaar-dev/bazaar/internal/domain/cart"
	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
	"github.com/bazaar-dev/bazaar/internal/domain/order"
	"github.com/bazaar-dev/bazaar/internal/domain/product"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	products *product.Service
	carts    *cart.Service
	coupons  *coupon.Evaluator
	orders   *order.Service
}

// New constructs a Handler with the required domain services.
func New(products *product.Service, carts *cart.Service, coupons *coupon.Evaluator, orders *order.Service) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		coupons:  coupons,
		orders:   orders,
	}
}

// Register mounts all API routes under /api/v1. jwtSecret feeds the
// authentication middleware for the protected groups.
func (h *Handler) Register(e *echo.Echo, jwtSecret []byte) {
	api := e.Group("/api/v1")
	authed := Authenticate(jwtSecret)
	adminOnly := RequireRole(auth.RoleAdmin)

	// Catalog: public reads, admin writes, authenticated reviews.
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/products/slug/:slug", h.GetProductBySlug)
	api.POST("/products/admin", h.CreateProduct, authed, adminOnly)
	api.PUT("/products/admin/:id", h.UpdateProduct, authed, adminOnly)
	api.DELETE("/products/admin/:id", h.DeleteProduct, authed, adminOnly)
	api.PUT("/products/:id/review", h.UpsertReview, authed)
	api.DELETE("/products/:id/review", h.DeleteReview, authed)

	// Cart.
	crt := api.Group("/cart", authed)
	crt.GET("", h.GetCart)
	crt.POST("/item", h.UpsertCartItem)
	crt.DELETE("/item/:productId", h.RemoveCartItem)
	crt.DELETE("", h.ClearCart)

	// Coupons.
	api.POST("/coupon/apply", h.ApplyCoupon, authed)
	api.POST("/coupon/admin/new", h.CreateCoupon, authed, adminOnly)
	api.GET("/coupon/admin/all", h.ListCoupons, authed, adminOnly)
	api.DELETE("/coupon/admin/:id", h.DeleteCoupon, authed, adminOnly)

	// Orders.
	api.POST("/order/new", h.CreateOrder, authed)
	api.GET("/order/me", h.ListMyOrders, authed)
	api.GET("/order/:id", h.GetOrder, authed)
	api.PUT("/order/:id/cancel", h.CancelOrder, authed)
	api.GET("/order/admin/orders", h.ListAllOrders, authed, adminOnly)
	api.PUT("/order/admin/order/:id", h.UpdateOrderStatus, authed, adminOnly)
	api.DELETE("/order/admin/order/:id", h.DeleteOrder, authed, adminOnly)
}
