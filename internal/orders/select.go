package orders

import (
	"event-registration-platform/internal/models"
)

// SelectTargetOrder decides which of a registration's existing orders should
// receive planned deltas. It returns the chosen editable order, or nil when a
// fresh draft order must be created.
//
// More than one editable order should not normally exist. When it does, the
// most recently created one wins (highest id breaks creation-time ties) and
// the passed-over editable orders are returned so the caller can log a
// warning.
func SelectTargetOrder(existing []*models.Order) (*models.Order, []*models.Order) {
	var editable []*models.Order
	for _, order := range existing {
		if order.IsEditable() {
			editable = append(editable, order)
		}
	}

	if len(editable) == 0 {
		return nil, nil
	}

	chosen := editable[0]
	for _, order := range editable[1:] {
		if order.CreatedAt.After(chosen.CreatedAt) ||
			(order.CreatedAt.Equal(chosen.CreatedAt) && order.ID > chosen.ID) {
			chosen = order
		}
	}

	var skipped []*models.Order
	for _, order := range editable {
		if order != chosen {
			skipped = append(skipped, order)
		}
	}

	return chosen, skipped
}
