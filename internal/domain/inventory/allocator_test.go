package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsupply/internal/core/apperror"
	"smartsupply/internal/core/id"
)

var day0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func batchAt(number string, qty int64, day int) Batch {
	return Batch{
		ID:          id.New(),
		BatchNumber: number,
		Quantity:    qty,
		ReceivedAt:  day0.AddDate(0, 0, day),
	}
}

func TestAllocate_OldestFirst(t *testing.T) {
	b1 := batchAt("B1", 5, 1)
	b2 := batchAt("B2", 5, 2)

	plan, err := Allocate([]Batch{b2, b1}, 7)
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 2)

	assert.Equal(t, "B1", plan.Allocations[0].Batch.BatchNumber)
	assert.Equal(t, int64(5), plan.Allocations[0].Take)
	assert.Equal(t, "B2", plan.Allocations[1].Batch.BatchNumber)
	assert.Equal(t, int64(2), plan.Allocations[1].Take)
	assert.Equal(t, int64(7), plan.Total())
}

func TestAllocate_StopsWhenSatisfied(t *testing.T) {
	plan, err := Allocate([]Batch{batchAt("B1", 5, 1), batchAt("B2", 5, 2)}, 3)
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, int64(3), plan.Allocations[0].Take)
}

func TestAllocate_TieBrokenByID(t *testing.T) {
	first := batchAt("X", 2, 1)
	second := batchAt("Y", 2, 1)
	require.True(t, id.Less(first.ID, second.ID))

	plan, err := Allocate([]Batch{second, first}, 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, plan.Allocations[0].Batch.ID)
	assert.Equal(t, second.ID, plan.Allocations[1].Batch.ID)
}

func TestAllocate_SkipsEmptyBatches(t *testing.T) {
	plan, err := Allocate([]Batch{batchAt("OLD", 0, 0), batchAt("NEW", 4, 3)}, 4)
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, "NEW", plan.Allocations[0].Batch.BatchNumber)
}

func TestAllocate_Errors(t *testing.T) {
	batches := []Batch{batchAt("B1", 5, 1), batchAt("B2", 3, 2)}

	tests := []struct {
		name      string
		batches   []Batch
		requested int64
		code      string
		shortfall int64
	}{
		{"zero", batches, 0, apperror.CodeInvalidQuantity, 0},
		{"negative", batches, -4, apperror.CodeInvalidQuantity, 0},
		{"exceeds available", batches, 10, apperror.CodeInsufficientStock, 2},
		{"no batches", nil, 6, apperror.CodeInsufficientStock, 6},
		{"only empty batches", []Batch{batchAt("E", 0, 1)}, 1, apperror.CodeInsufficientStock, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Allocate(tt.batches, tt.requested)
			require.Error(t, err)
			assert.Empty(t, plan.Allocations)
			assert.True(t, apperror.HasCode(err, tt.code))
			if tt.code == apperror.CodeInsufficientStock {
				shortfall, ok := apperror.Shortfall(err)
				require.True(t, ok)
				assert.Equal(t, tt.shortfall, shortfall)
			}
		})
	}
}

func TestAllocateExplicit(t *testing.T) {
	b := batchAt("L7", 4, 1)
	empty := batchAt("L0", 0, 1)

	plan, err := AllocateExplicit(&b, "L7", 4)
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, b.ID, plan.Allocations[0].Batch.ID)

	_, err = AllocateExplicit(nil, "L9", 1)
	assert.True(t, apperror.IsBatchNotFound(err))

	_, err = AllocateExplicit(&empty, "L0", 1)
	assert.True(t, apperror.IsBatchNotFound(err))

	_, err = AllocateExplicit(&b, "L7", 6)
	assert.True(t, apperror.IsInsufficientStock(err))
	shortfall, _ := apperror.Shortfall(err)
	assert.Equal(t, int64(2), shortfall)

	_, err = AllocateExplicit(&b, "L7", 0)
	assert.True(t, apperror.IsInvalidQuantity(err))
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	batches := []Batch{batchAt("B2", 5, 2), batchAt("B1", 5, 1)}
	_, err := Allocate(batches, 7)
	require.NoError(t, err)
	assert.Equal(t, "B2", batches[0].BatchNumber)
	assert.Equal(t, int64(5), batches[0].Quantity)
	assert.Equal(t, int64(5), batches[1].Quantity)
}
