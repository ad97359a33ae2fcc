package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/types"
	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/http/v1/dto"
)

// MovementExecutor commits stock movements.
type MovementExecutor interface {
	Execute(ctx context.Context, d inventory.MovementDescriptor) (*inventory.MovementResult, error)
}

// HistoryReader lists audit records.
type HistoryReader interface {
	GetMovementHistory(ctx context.Context, filter inventory.HistoryFilter) ([]inventory.MovementRecord, error)
}

// MovementHandler handles /movements.
type MovementHandler struct {
	*BaseHandler
	engine  MovementExecutor
	history HistoryReader
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, engine MovementExecutor, history HistoryReader) *MovementHandler {
	return &MovementHandler{BaseHandler: base, engine: engine, history: history}
}

// Inbound receives stock into a warehouse.
// POST /movements/inbound
func (h *MovementHandler) Inbound(c *gin.Context) { h.execute(c, inventory.Inbound) }

// Outbound ships stock out, FIFO unless a batch is named.
// POST /movements/outbound
func (h *MovementHandler) Outbound(c *gin.Context) { h.execute(c, inventory.Outbound) }

// Transfer moves stock between two warehouses.
// POST /movements/transfer
func (h *MovementHandler) Transfer(c *gin.Context) { h.execute(c, inventory.Transfer) }

// Damage writes stock off.
// POST /movements/damage
func (h *MovementHandler) Damage(c *gin.Context) { h.execute(c, inventory.Damage) }

func (h *MovementHandler) execute(c *gin.Context, t inventory.MovementType) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, types.ErrInvalidQuantity) {
			h.Error(c, apperror.NewInvalidQuantity(err.Error()))
			return
		}
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return
	}

	result, err := h.engine.Execute(c.Request.Context(), req.ToDescriptor(t))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, result, "movement "+result.ReferenceNumber+" recorded")
}

// History lists movements newest first.
// GET /movements
func (h *MovementHandler) History(c *gin.Context) {
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	records, err := h.history.GetMovementHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(records))
}
