package inventory

import (
	"sort"

	"smartsupply/internal/core/apperror"
)

// Allocation is the quantity taken from one batch.
type Allocation struct {
	Batch Batch
	Take  int64
}

// Plan is an ordered set of allocations satisfying a deduction request.
// Planning never mutates anything; the engine applies a plan afterwards.
type Plan struct {
	Requested   int64
	Allocations []Allocation
}

// Total is the quantity covered by the plan.
func (p Plan) Total() int64 {
	var total int64
	for _, a := range p.Allocations {
		total += a.Take
	}
	return total
}

// Allocate plans a FIFO deduction across batches of a single (product, warehouse)
// pair. Empty batches are skipped; the rest are consumed oldest-received first,
// ties broken by batch id.
func Allocate(batches []Batch, requested int64) (Plan, error) {
	if requested <= 0 {
		return Plan{}, apperror.NewInvalidQuantity(requested)
	}

	eligible := make([]Batch, 0, len(batches))
	var available int64
	for _, b := range batches {
		if b.Quantity > 0 {
			eligible = append(eligible, b)
			available += b.Quantity
		}
	}
	if available < requested {
		return Plan{}, apperror.NewInsufficientStock("", requested, available)
	}

	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Before(eligible[j]) })

	plan := Plan{Requested: requested}
	remaining := requested
	for _, b := range eligible {
		if remaining == 0 {
			break
		}
		take := min(remaining, b.Quantity)
		plan.Allocations = append(plan.Allocations, Allocation{Batch: b, Take: take})
		remaining -= take
	}
	return plan, nil
}

// AllocateExplicit plans a deduction from one named batch, bypassing FIFO.
// batch is nil when the pair has no batch with that number.
func AllocateExplicit(batch *Batch, batchNumber string, requested int64) (Plan, error) {
	if requested <= 0 {
		return Plan{}, apperror.NewInvalidQuantity(requested)
	}
	if batch == nil || batch.Quantity == 0 {
		return Plan{}, apperror.NewBatchNotFound(batchNumber)
	}
	if batch.Quantity < requested {
		return Plan{}, apperror.NewInsufficientStock("", requested, batch.Quantity).
			WithDetail("batch_number", batchNumber)
	}
	return Plan{
		Requested:   requested,
		Allocations: []Allocation{{Batch: *batch, Take: requested}},
	}, nil
}

// findBatch returns the batch with the given number, or nil.
func findBatch(batches []Batch, batchNumber string) *Batch {
	for i := range batches {
		if batches[i].BatchNumber == batchNumber {
			return &batches[i]
		}
	}
	return nil
}

// latestBatch returns the most recently received batch, or nil.
func latestBatch(batches []Batch) *Batch {
	var latest *Batch
	for i := range batches {
		if latest == nil || latest.Before(batches[i]) {
			latest = &batches[i]
		}
	}
	return latest
}
