package orders

import (
	"sort"

	"event-registration-platform/internal/models"
)

// TargetLine is one desired (product, variant, quantity) entry of a target
// state. DesiredQuantity is the absolute quantity the registration should end
// up holding, never a delta.
type TargetLine struct {
	ProductID int  `json:"product_id"`
	VariantID *int `json:"variant_id,omitempty"`
	Quantity  int  `json:"quantity"`
}

// Delta is one planned order-line adjustment. Quantity is signed: positive
// adds, negative reduces/refunds. Each delta becomes exactly one new order
// line on the selected order.
type Delta struct {
	ProductID int
	VariantID *int
	Quantity  int
}

// PlanOrderLines computes the minimal set of order-line deltas that moves
// currentNet to the state described by target.
//
// Every pair in target gets delta = desired - current (missing current counts
// as zero). Every pair present in currentNet but absent from target is treated
// as desired zero, producing a full removal. Zero deltas are omitted, so
// planning the same target twice yields an empty plan the second time.
//
// A negative desired quantity anywhere in target rejects the whole request
// before any delta is computed; so does the same (product, variant) pair
// appearing twice.
func PlanOrderLines(currentNet map[ProductKey]int, target []TargetLine) ([]Delta, error) {
	desired := make(map[ProductKey]int, len(target))
	for _, t := range target {
		if t.Quantity < 0 {
			return nil, models.NewValidationError(
				"desired quantity for product %d cannot be negative", t.ProductID)
		}

		key := KeyFor(t.ProductID, t.VariantID)
		if _, dup := desired[key]; dup {
			return nil, models.NewValidationError(
				"product %d appears more than once in the requested state", t.ProductID)
		}
		desired[key] = t.Quantity
	}

	keys := make(map[ProductKey]struct{}, len(desired)+len(currentNet))
	for key := range desired {
		keys[key] = struct{}{}
	}
	for key := range currentNet {
		keys[key] = struct{}{}
	}

	var deltas []Delta
	for key := range keys {
		delta := desired[key] - currentNet[key]
		if delta == 0 {
			continue
		}
		deltas = append(deltas, Delta{
			ProductID: key.ProductID,
			VariantID: key.VariantPtr(),
			Quantity:  delta,
		})
	}

	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].ProductID != deltas[j].ProductID {
			return deltas[i].ProductID < deltas[j].ProductID
		}
		return variantOrd(deltas[i].VariantID) < variantOrd(deltas[j].VariantID)
	})

	return deltas, nil
}
