package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/service"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update requests.
// Numbers may be sent as JSON numbers or as locale formatted strings.
type ProductRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Price       *model.LocaleNumber `json:"price"`
	Stock       *model.LocaleNumber `json:"stock"`
	MinStock    *model.LocaleNumber `json:"min_stock"`
	ImageURL    *string             `json:"image_url"`
}

func (r *ProductRequest) input() service.ProductInput {
	in := service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImageURL,
	}
	if r.Price != nil {
		v := r.Price.Float64()
		in.Price = &v
	}
	if r.Stock != nil {
		v := r.Stock.Int()
		in.Stock = &v
	}
	if r.MinStock != nil {
		v := r.MinStock.Int()
		in.MinStock = &v
	}
	return in
}

// ListProducts handles retrieving the catalog, optionally filtered by ?search=
func (h *Handler) ListProducts(c echo.Context) error {
	log := logger.FromEcho(c)
	search := c.QueryParam("search")

	products, err := h.catalog.List(c.Request().Context(), search)
	if err != nil {
		return respondError(c, err, "retrieve products")
	}

	log.Debug("Products retrieved", zap.String("search", search), zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func (h *Handler) GetProduct(c echo.Context) error {
	product, err := h.catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "retrieve product")
	}
	return c.JSON(http.StatusOK, product)
}

// LowStockProducts lists products at or below their restock threshold
func (h *Handler) LowStockProducts(c echo.Context) error {
	products, err := h.catalog.LowStock(c.Request().Context())
	if err != nil {
		return respondError(c, err, "retrieve low stock products")
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct handles creating a new product
func (h *Handler) CreateProduct(c echo.Context) error {
	log := logger.FromEcho(c)

	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "create product")
	}

	product, err := h.catalog.Create(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err, "create product")
	}

	log.Info("Product created successfully",
		zap.String("product_id", product.ID),
		zap.String("product_name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product. Omitted fields keep their value.
func (h *Handler) UpdateProduct(c echo.Context) error {
	log := logger.FromEcho(c)
	id := c.Param("id")

	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "update product")
	}

	product, err := h.catalog.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return respondError(c, err, "update product")
	}

	log.Info("Product updated successfully", zap.String("product_id", id))
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles deleting a product
func (h *Handler) DeleteProduct(c echo.Context) error {
	id := c.Param("id")
	if err := h.catalog.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "delete product")
	}
	return message(c, http.StatusOK, "product deleted")
}
