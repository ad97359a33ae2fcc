package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/domain/catalog"
	"smartsupply/internal/infrastructure/http/v1/dto"
)

// CatalogService manages products and warehouses.
type CatalogService interface {
	CreateProduct(ctx context.Context, p *catalog.Product) error
	CreateWarehouse(ctx context.Context, w *catalog.Warehouse) error
	ListProducts(ctx context.Context, filter catalog.ListFilter) ([]catalog.Product, error)
	ListWarehouses(ctx context.Context, filter catalog.ListFilter) ([]catalog.Warehouse, error)
}

// CatalogHandler handles /catalog.
type CatalogHandler struct {
	*BaseHandler
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service CatalogService) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// ListProducts handles GET /catalog/products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var f dto.ListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	items, err := h.service.ListProducts(c.Request.Context(), f.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// CreateProduct handles POST /catalog/products.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p := req.ToProduct()
	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p, "product created")
}

// ListWarehouses handles GET /catalog/warehouses.
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	var f dto.ListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	items, err := h.service.ListWarehouses(c.Request.Context(), f.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// CreateWarehouse handles POST /catalog/warehouses.
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	w := req.ToWarehouse()
	if err := h.service.CreateWarehouse(c.Request.Context(), w); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, w, "warehouse created")
}
