package handlers

import (
	"github.com/gin-gonic/gin"

	"smartsupply/internal/domain/gate"
	"smartsupply/internal/infrastructure/http/v1/dto"
)

// GateHandler exposes the operation classifier.
type GateHandler struct {
	*BaseHandler
}

// NewGateHandler creates a new gate handler.
func NewGateHandler(base *BaseHandler) *GateHandler {
	return &GateHandler{BaseHandler: base}
}

// Classify handles GET /gate/:operation. Unknown operations report HARD_GATE.
func (h *GateHandler) Classify(c *gin.Context) {
	op := c.Param("operation")
	tier, known := gate.Classify(op)
	h.OK(c, dto.GateResponse{
		Operation:            op,
		Tier:                 tier,
		Known:                known,
		RequiresConfirmation: tier.RequiresConfirmation(),
	})
}
