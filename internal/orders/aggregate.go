// Package orders holds the pure order-reconciliation core: aggregating order
// lines into net product quantities, planning the line deltas needed to reach
// a desired target state, and selecting the order the deltas are appended to.
// The functions here take fully-materialized snapshots and never touch the
// database; callers load the rows once and apply the results inside a single
// transaction.
package orders

import (
	"sort"

	"event-registration-platform/internal/models"
)

// ProductKey identifies a (product, variant) pair. VariantID 0 means the line
// carries no variant; real variant ids start at 1, so an absent variant is
// always a distinct key from any present one.
type ProductKey struct {
	ProductID int
	VariantID int
}

// KeyFor builds a ProductKey from a product id and an optional variant id
func KeyFor(productID int, variantID *int) ProductKey {
	key := ProductKey{ProductID: productID}
	if variantID != nil {
		key.VariantID = *variantID
	}
	return key
}

// VariantPtr returns the key's variant id as an optional value
func (k ProductKey) VariantPtr() *int {
	if k.VariantID == 0 {
		return nil
	}
	v := k.VariantID
	return &v
}

// ProductQuantity is one aggregated (product, variant, net quantity) result
type ProductQuantity struct {
	ProductID int  `json:"product_id"`
	VariantID *int `json:"variant_id,omitempty"`
	Quantity  int  `json:"quantity"`
}

// NetQuantities sums line quantities per (product, variant) pair across all
// lines whose owning order is not cancelled. Lines whose owner is missing
// from ownerStatus are skipped: an unknown owner cannot be proven
// non-cancelled. Zero-sum pairs are kept; callers that need the "net zero
// means not ordered" rule use AggregateProducts.
func NetQuantities(lines []*models.OrderLine, ownerStatus map[int]models.OrderStatus) map[ProductKey]int {
	net := make(map[ProductKey]int)

	for _, line := range lines {
		status, ok := ownerStatus[line.OrderID]
		if !ok || status == models.OrderCancelled {
			continue
		}
		net[KeyFor(line.ProductID, line.VariantID)] += line.Quantity
	}

	return net
}

// AggregateProducts computes the net ordered quantity per (product, variant)
// pair for a registration's order lines. Lines belonging to cancelled orders
// are excluded, repeated lines for the same pair are combined, and pairs whose
// quantities sum to zero are dropped entirely. The result is sorted by product
// then variant id for stable output, but callers must not depend on the order.
func AggregateProducts(lines []*models.OrderLine, ownerStatus map[int]models.OrderStatus) []ProductQuantity {
	net := NetQuantities(lines, ownerStatus)

	result := make([]ProductQuantity, 0, len(net))
	for key, quantity := range net {
		if quantity == 0 {
			continue
		}
		result = append(result, ProductQuantity{
			ProductID: key.ProductID,
			VariantID: key.VariantPtr(),
			Quantity:  quantity,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		return variantOrd(result[i].VariantID) < variantOrd(result[j].VariantID)
	})

	return result
}

func variantOrd(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
