package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"smartsupply/internal/domain/inventory"
	"smartsupply/internal/infrastructure/http/v1/dto"
)

// IssueLister lists persisted reconciliation findings.
type IssueLister interface {
	Issues(ctx context.Context, limit int) ([]inventory.Issue, error)
}

// ReconciliationHandler handles /reconciliation.
type ReconciliationHandler struct {
	*BaseHandler
	issues IssueLister
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(base *BaseHandler, issues IssueLister) *ReconciliationHandler {
	return &ReconciliationHandler{BaseHandler: base, issues: issues}
}

// Issues handles GET /reconciliation/issues.
func (h *ReconciliationHandler) Issues(c *gin.Context) {
	var q dto.LimitQuery
	if !h.BindQuery(c, &q) {
		return
	}
	items, err := h.issues.Issues(c.Request.Context(), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}
