// Package gate classifies operations by risk so callers can decide whether to
// ask for confirmation before invoking them. Classification is advisory metadata;
// nothing here blocks an operation.
package gate

import "sort"

// Tier is the risk classification of an operation.
type Tier string

const (
	ReadOnly Tier = "READ_ONLY"
	SoftGate Tier = "SOFT_GATE"
	HardGate Tier = "HARD_GATE"
)

// Operation names exposed by the inventory surface.
const (
	OpQueryStock           = "query_inventory_stock"
	OpQueryDetails         = "query_inventory_details"
	OpQueryLowStock        = "query_low_stock_items"
	OpQueryMovementHistory = "query_movement_history"
	OpQueryProducts        = "query_product_catalog"
	OpQueryWarehouses      = "query_warehouse_catalog"

	OpCreateProduct   = "create_product"
	OpCreateWarehouse = "create_warehouse"
	OpInbound         = "adjust_inventory_inbound"

	OpOutbound = "adjust_inventory_outbound"
	OpTransfer = "transfer_inventory"
	OpDamage   = "report_inventory_anomaly"
)

var tiers = map[string]Tier{
	OpQueryStock:           ReadOnly,
	OpQueryDetails:         ReadOnly,
	OpQueryLowStock:        ReadOnly,
	OpQueryMovementHistory: ReadOnly,
	OpQueryProducts:        ReadOnly,
	OpQueryWarehouses:      ReadOnly,

	OpCreateProduct:   SoftGate,
	OpCreateWarehouse: SoftGate,
	OpInbound:         SoftGate,

	OpOutbound: HardGate,
	OpTransfer: HardGate,
	OpDamage:   HardGate,
}

var movementOps = map[string]string{
	"INBOUND":  OpInbound,
	"OUTBOUND": OpOutbound,
	"TRANSFER": OpTransfer,
	"DAMAGE":   OpDamage,
}

// Classify returns the tier of an operation. Unknown operations are treated as
// HARD_GATE and reported with ok=false.
func Classify(operation string) (tier Tier, ok bool) {
	tier, ok = tiers[operation]
	if !ok {
		return HardGate, false
	}
	return tier, true
}

// ForMovement maps a movement type (INBOUND, OUTBOUND, TRANSFER, DAMAGE) to its
// operation name and tier.
func ForMovement(movementType string) (operation string, tier Tier) {
	operation, ok := movementOps[movementType]
	if !ok {
		return movementType, HardGate
	}
	tier, _ = Classify(operation)
	return operation, tier
}

// RequiresConfirmation reports whether callers should confirm before invoking
// an operation of this tier.
func (t Tier) RequiresConfirmation() bool {
	return t != ReadOnly
}

// Operations lists every known operation, sorted, for the given tier.
func Operations(tier Tier) []string {
	var out []string
	for op, t := range tiers {
		if t == tier {
			out = append(out, op)
		}
	}
	sort.Strings(out)
	return out
}
