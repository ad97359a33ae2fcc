package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/http/v1/dto"
)

// StockReader answers on-hand questions.
type StockReader interface {
	GetStock(ctx context.Context, productRef, warehouseRef string) (*inventory.StockLevel, error)
	GetInventoryDetails(ctx context.Context, productRef, warehouseRef string) (*inventory.StockLevel, error)
	GetLowStock(ctx context.Context, limit int) ([]inventory.LowStockItem, error)
}

// StockHandler handles /stock.
type StockHandler struct {
	*BaseHandler
	queries StockReader
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, queries StockReader) *StockHandler {
	return &StockHandler{BaseHandler: base, queries: queries}
}

// Stock returns on-hand totals for a product, optionally in one warehouse.
// GET /stock?product=&warehouse=
func (h *StockHandler) Stock(c *gin.Context) {
	var q dto.StockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	level, err := h.queries.GetStock(c.Request.Context(), q.Product, q.Warehouse)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, level)
}

// Details returns the batch breakdown including exhausted batches.
// GET /stock/details?product=&warehouse=
func (h *StockHandler) Details(c *gin.Context) {
	var q dto.StockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	level, err := h.queries.GetInventoryDetails(c.Request.Context(), q.Product, q.Warehouse)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, level)
}

// Low lists product/warehouse pairs below their reorder level.
// GET /stock/low?limit=
func (h *StockHandler) Low(c *gin.Context) {
	var q dto.LimitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	items, err := h.queries.GetLowStock(c.Request.Context(), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}
