package middleware

import (
	"github.com/gin-gonic/gin"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/domain/gate"
)

const HeaderConfirmOperation = "X-Confirm-Operation"

// Gate classifies the route's operation, exposes its tier to the response
// envelope and, when requireConfirmation is set, rejects gated calls whose
// X-Confirm-Operation header does not name the operation.
func Gate(operation string, requireConfirmation bool) gin.HandlerFunc {
	tier, _ := gate.Classify(operation)
	return func(c *gin.Context) {
		c.Set(KeyGateType, string(tier))

		if requireConfirmation && tier.RequiresConfirmation() &&
			c.GetHeader(HeaderConfirmOperation) != operation {
			_ = c.Error(apperror.NewConfirmationRequired(operation, string(tier)))
			c.Abort()
			return
		}
		c.Next()
	}
}
