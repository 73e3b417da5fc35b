package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bazaar-dev/bazaar/internal/domain/cart"
	"github.com/bazaar-dev/bazaar/internal/domain/coupon"
	"github.com/bazaar-dev/bazaar/internal/domain/order"
	"github.com/bazaar-dev/bazaar/internal/domain/product"
)

// --- Requests ---

type upsertCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createCouponRequest struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinCartValue  decimal.Decimal `json:"min_cart_value"`
	ExpiryDate    time.Time       `json:"expiry_date"`
}

type applyCouponRequest struct {
	CouponCode string `json:"coupon_code"`
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []imageDTO      `json:"images"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Name    string `json:"name"`
}

type createOrderRequest struct {
	ShippingInfo  shippingInfoDTO   `json:"shipping_info"`
	OrderItems    []orderItemInput  `json:"order_items"`
	PaymentInfo   paymentInfoDTO    `json:"payment_info"`
	TaxPrice      decimal.Decimal   `json:"tax_price"`
	ShippingPrice decimal.Decimal   `json:"shipping_price"`
	CouponCode    string            `json:"coupon_code"`
}

type orderItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// --- Responses ---

type imageDTO struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type reviewDTO struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type productDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Ratings     decimal.Decimal `json:"ratings"`
	NumReviews  int             `json:"num_reviews"`
	Images      []imageDTO      `json:"images"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Reviews     []reviewDTO     `json:"reviews"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type productListResponse struct {
	Products     []productDTO `json:"products"`
	ProductCount int          `json:"product_count"`
	PerPage      int          `json:"per_page"`
}

type cartItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type cartDTO struct {
	UserID   string          `json:"user_id"`
	Items    []cartItemDTO   `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type couponDTO struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinCartValue  decimal.Decimal `json:"min_cart_value"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	IsActive      bool            `json:"is_active"`
}

type couponQuoteResponse struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CouponCode string          `json:"coupon_code"`
}

type shippingInfoDTO struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	PinCode string `json:"pin_code"`
	PhoneNo string `json:"phone_no"`
}

type paymentInfoDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type orderItemDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
}

type orderDTO struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ShippingInfo  shippingInfoDTO `json:"shipping_info"`
	OrderItems    []orderItemDTO  `json:"order_items"`
	PaymentInfo   paymentInfoDTO  `json:"payment_info"`
	ItemsPrice    decimal.Decimal `json:"items_price"`
	TaxPrice      decimal.Decimal `json:"tax_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CouponApplied string          `json:"coupon_applied,omitempty"`
	OrderStatus   string          `json:"order_status"`
	PaidAt        time.Time       `json:"paid_at"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type orderListResponse struct {
	Orders      []orderDTO      `json:"orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// --- Converters ---

func toProductDTO(p *product.Product) productDTO {
	images := make([]imageDTO, len(p.Images))
	for i, img := range p.Images {
		images[i] = imageDTO{PublicID: img.PublicID, URL: img.URL}
	}
	reviews := make([]reviewDTO, len(p.Reviews))
	for i, r := range p.Reviews {
		reviews[i] = reviewDTO{UserID: r.UserID, Name: r.Name, Rating: r.Rating, Comment: r.Comment}
	}
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		Ratings:     p.Ratings,
		NumReviews:  p.NumReviews,
		Images:      images,
		Category:    string(p.Category),
		Stock:       p.Stock,
		Reviews:     reviews,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toCartDTO(c *cart.Cart) cartDTO {
	items := make([]cartItemDTO, len(c.Items))
	for i, item := range c.Items {
		items[i] = cartItemDTO{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return cartDTO{UserID: c.UserID, Items: items, Subtotal: c.Subtotal}
}

func toCouponDTO(c *coupon.Coupon) couponDTO {
	return couponDTO{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		MinCartValue:  c.MinCartValue,
		ExpiryDate:    c.ExpiryDate,
		IsActive:      c.IsActive,
	}
}

func toOrderDTO(o *order.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Image:     item.Image,
		}
	}
	return orderDTO{
		ID:     o.ID,
		UserID: o.UserID,
		ShippingInfo: shippingInfoDTO{
			Address: o.ShippingInfo.Address,
			City:    o.ShippingInfo.City,
			State:   o.ShippingInfo.State,
			Country: o.ShippingInfo.Country,
			PinCode: o.ShippingInfo.PinCode,
			PhoneNo: o.ShippingInfo.PhoneNo,
		},
		OrderItems:    items,
		PaymentInfo:   paymentInfoDTO{ID: o.PaymentInfo.ID, Status: o.PaymentInfo.Status},
		ItemsPrice:    o.ItemsPrice,
		TaxPrice:      o.TaxPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
		CouponApplied: o.CouponID,
		OrderStatus:   string(o.Status),
		PaidAt:        o.PaidAt,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
	}
}
