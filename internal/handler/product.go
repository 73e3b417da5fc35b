package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/bazaar-dev/bazaar/internal/domain/product"
)

// ListProducts returns a filtered catalog page. Filters come from query
// parameters: keyword, category, price_gte, price_lte, ratings_gte, page,
// per_page.
func (h *Handler) ListProducts(c echo.Context) error {
	filter := product.ListFilter{
		Keyword:  c.QueryParam("keyword"),
		Category: product.Category(c.QueryParam("category")),
	}
	if v := c.QueryParam("price_gte"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid price_gte"})
		}
		filter.PriceMin = &d
	}
	if v := c.QueryParam("price_lte"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid price_lte"})
		}
		filter.PriceMax = &d
	}
	if v := c.QueryParam("ratings_gte"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid ratings_gte"})
		}
		filter.RatingsMin = &d
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.PerPage, _ = strconv.Atoi(c.QueryParam("per_page"))

	res, err := h.products.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]productDTO, len(res.Products))
	for i := range res.Products {
		out[i] = toProductDTO(&res.Products[i])
	}
	return c.JSON(http.StatusOK, productListResponse{
		Products:     out,
		ProductCount: res.Total,
		PerPage:      res.PerPage,
	})
}

// GetProduct returns one product by id.
func (h *Handler) GetProduct(c echo.Context) error {
	p, err := h.products.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toProductDTO(p))
}

// GetProductBySlug returns one product by its unique slug.
func (h *Handler) GetProductBySlug(c echo.Context) error {
	p, err := h.products.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toProductDTO(p))
}

// CreateProduct adds a product to the catalog (admin).
func (h *Handler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}

	images := make([]product.Image, len(req.Images))
	for i, img := range req.Images {
		images[i] = product.Image{PublicID: img.PublicID, URL: img.URL}
	}

	p, err := h.products.Create(c.Request().Context(), product.CreateRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      images,
		Category:    product.Category(req.Category),
		Stock:       req.Stock,
		CreatedBy:   callerID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toProductDTO(p))
}

// UpdateProduct applies a partial update to a product (admin).
func (h *Handler) UpdateProduct(c echo.Context) error {
	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}

	upd := product.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if req.Category != nil {
		cat := product.Category(*req.Category)
		upd.Category = &cat
	}

	p, err := h.products.Update(c.Request().Context(), c.Param("id"), upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toProductDTO(p))
}

// DeleteProduct removes a product from the catalog (admin).
func (h *Handler) DeleteProduct(c echo.Context) error {
	if err := h.products.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "product deleted"})
}

// UpsertReview adds or replaces the caller's review on a product.
func (h *Handler) UpsertReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid request body"})
	}

	p, err := h.products.UpsertReview(c.Request().Context(), c.Param("id"), product.Review{
		UserID:  callerID(c),
		Name:    req.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toProductDTO(p))
}

// DeleteReview removes the caller's review from a product.
func (h *Handler) DeleteReview(c echo.Context) error {
	p, err := h.products.DeleteReview(c.Request().Context(), c.Param("id"), callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toProductDTO(p))
}
