package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/catalog-api/backend/internal/model"
	"github.com/catalog-api/backend/internal/service"
)

type ProductHandler struct {
	svc *service.ProductService
}

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "Category"
// @Param inStock query bool false "Stock filter"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Success 200 {object} model.ProductListEnvelope
// @Failure 400 {object} model.StatusResponse
// @Failure 500 {object} model.StatusResponse
// @Router /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	products, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ProductListEnvelope{
		Status:  statusSuccess,
		Results: len(products),
		Data:    products,
	})
}

// GetProduct godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} model.ProductEnvelope
// @Failure 400 {object} model.StatusResponse
// @Failure 404 {object} model.StatusResponse
// @Router /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ProductEnvelope{Status: statusSuccess, Data: product})
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateProductRequest true "Product"
// @Success 201 {object} model.ProductEnvelope
// @Failure 400 {object} model.StatusResponse
// @Failure 401 {object} model.StatusResponse
// @Failure 403 {object} model.StatusResponse
// @Router /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req model.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.ProductEnvelope{Status: statusSuccess, Data: product})
}

// UpdateProduct godoc
// @Summary Update a product
// @Description Partial update; at least one field is required.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body model.UpdateProductRequest true "Fields to change"
// @Success 200 {object} model.ProductEnvelope
// @Failure 400 {object} model.StatusResponse
// @Failure 401 {object} model.StatusResponse
// @Failure 403 {object} model.StatusResponse
// @Failure 404 {object} model.StatusResponse
// @Router /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsEmpty() {
		abortWithError(c, NewAppError(http.StatusBadRequest, "At least one field must be provided"))
		return
	}

	product, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ProductEnvelope{Status: statusSuccess, Data: product})
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} model.StatusResponse
// @Failure 401 {object} model.StatusResponse
// @Failure 403 {object} model.StatusResponse
// @Failure 404 {object} model.StatusResponse
// @Router /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeProductError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, NewAppError(http.StatusBadRequest, "Invalid ID format"))
		return 0, false
	}
	return id, true
}

func parseProductFilter(c *gin.Context) (model.ProductFilter, error) {
	var filter model.ProductFilter

	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if raw := c.Query("inStock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, NewAppError(http.StatusBadRequest, `"inStock" must be a boolean`)
		}
		filter.InStock = &inStock
	}
	for _, p := range []struct {
		name string
		dst  **float64
	}{
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return filter, NewAppError(http.StatusBadRequest, `"`+p.name+`" must be a non-negative number`)
		}
		*p.dst = &v
	}
	return filter, nil
}

func writeProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		abortWithError(c, NewAppError(http.StatusNotFound, "Product not found"))
	case errors.Is(err, service.ErrInvalidInput):
		abortWithError(c, NewAppError(http.StatusBadRequest, "Invalid product data"))
	default:
		abortWithError(c, err)
	}
}
