package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStock_Shortfall(t *testing.T) {
	err := NewInsufficientStock("SKU-1", 12, 10)

	shortfall, ok := Shortfall(err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), shortfall)
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(err))

	wrapped := fmt.Errorf("outbound: %w", err)
	assert.True(t, IsInsufficientStock(wrapped))
	shortfall, ok = Shortfall(wrapped)
	assert.True(t, ok)
	assert.Equal(t, int64(2), shortfall)
}

func TestShortfall_OtherErrors(t *testing.T) {
	_, ok := Shortfall(NewNotFound("product", "x"))
	assert.False(t, ok)

	_, ok = Shortfall(errors.New("plain"))
	assert.False(t, ok)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", NewNotFound("warehouse", "W1"), IsNotFound},
		{"batch not found", NewBatchNotFound("LOT-1"), IsBatchNotFound},
		{"invalid quantity", NewInvalidQuantity(0), IsInvalidQuantity},
		{"duplicate reference", NewDuplicateReference("OUT-2026-00001"), IsDuplicateReference},
		{"consistency", NewConsistencyViolation("batch_ledger_mismatch", "b1"), IsConsistencyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(errors.New(tt.name)))
		})
	}
}

func TestAppError_WithCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("x")))
}
