package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		operation string
		want      Tier
	}{
		{OpQueryStock, ReadOnly},
		{OpQueryDetails, ReadOnly},
		{OpQueryLowStock, ReadOnly},
		{OpQueryMovementHistory, ReadOnly},
		{OpQueryProducts, ReadOnly},
		{OpQueryWarehouses, ReadOnly},
		{OpCreateProduct, SoftGate},
		{OpCreateWarehouse, SoftGate},
		{OpInbound, SoftGate},
		{OpOutbound, HardGate},
		{OpTransfer, HardGate},
		{OpDamage, HardGate},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			got, ok := Classify(tt.operation)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_UnknownIsHardGate(t *testing.T) {
	tier, ok := Classify("drop_all_tables")
	assert.False(t, ok)
	assert.Equal(t, HardGate, tier)
}

func TestForMovement(t *testing.T) {
	tests := []struct {
		movement string
		op       string
		tier     Tier
	}{
		{"INBOUND", OpInbound, SoftGate},
		{"OUTBOUND", OpOutbound, HardGate},
		{"TRANSFER", OpTransfer, HardGate},
		{"DAMAGE", OpDamage, HardGate},
		{"REVALUE", "REVALUE", HardGate},
	}

	for _, tt := range tests {
		t.Run(tt.movement, func(t *testing.T) {
			op, tier := ForMovement(tt.movement)
			assert.Equal(t, tt.op, op)
			assert.Equal(t, tt.tier, tier)
		})
	}
}

func TestRequiresConfirmation(t *testing.T) {
	assert.False(t, ReadOnly.RequiresConfirmation())
	assert.True(t, SoftGate.RequiresConfirmation())
	assert.True(t, HardGate.RequiresConfirmation())
}

func TestOperations(t *testing.T) {
	assert.Equal(t, []string{OpInbound, OpCreateProduct, OpCreateWarehouse}, Operations(SoftGate))
	assert.Len(t, Operations(ReadOnly), 6)
	assert.Len(t, Operations(HardGate), 3)
}
