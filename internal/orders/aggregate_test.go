package orders

import (
	"testing"

	"event-registration-platform/internal/models"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func line(orderID, productID int, variantID *int, quantity int) *models.OrderLine {
	return &models.OrderLine{
		OrderID:   orderID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}
}

func TestAggregateProducts(t *testing.T) {
	tests := []struct {
		name        string
		lines       []*models.OrderLine
		ownerStatus map[int]models.OrderStatus
		want        []ProductQuantity
	}{
		{
			name:        "no orders yields empty result",
			lines:       nil,
			ownerStatus: map[int]models.OrderStatus{},
			want:        []ProductQuantity{},
		},
		{
			name: "repeated lines in one order are combined",
			lines: []*models.OrderLine{
				line(1, 100, nil, 3),
				line(1, 100, nil, 2),
			},
			ownerStatus: map[int]models.OrderStatus{1: models.OrderDraft},
			want: []ProductQuantity{
				{ProductID: 100, Quantity: 5},
			},
		},
		{
			name: "refund line in later order reduces net quantity",
			lines: []*models.OrderLine{
				line(1, 100, nil, 5),
				line(2, 100, nil, -2),
			},
			ownerStatus: map[int]models.OrderStatus{
				1: models.OrderInvoiced,
				2: models.OrderDraft,
			},
			want: []ProductQuantity{
				{ProductID: 100, Quantity: 3},
			},
		},
		{
			name: "fully refunded product is dropped",
			lines: []*models.OrderLine{
				line(1, 100, nil, 3),
				line(2, 100, nil, -3),
			},
			ownerStatus: map[int]models.OrderStatus{
				1: models.OrderInvoiced,
				2: models.OrderVerified,
			},
			want: []ProductQuantity{},
		},
		{
			name: "cancelled orders never contribute",
			lines: []*models.OrderLine{
				line(1, 100, nil, 5),
				line(2, 100, nil, -5),
				line(2, 200, nil, 10),
			},
			ownerStatus: map[int]models.OrderStatus{
				1: models.OrderInvoiced,
				2: models.OrderCancelled,
			},
			want: []ProductQuantity{
				{ProductID: 100, Quantity: 5},
			},
		},
		{
			name: "all orders cancelled yields empty result",
			lines: []*models.OrderLine{
				line(1, 100, nil, 2),
				line(2, 200, intPtr(7), 1),
			},
			ownerStatus: map[int]models.OrderStatus{
				1: models.OrderCancelled,
				2: models.OrderCancelled,
			},
			want: []ProductQuantity{},
		},
		{
			name: "variant and no-variant lines stay separate",
			lines: []*models.OrderLine{
				line(1, 100, nil, 1),
				line(1, 100, intPtr(7), 2),
				line(1, 100, intPtr(8), 3),
			},
			ownerStatus: map[int]models.OrderStatus{1: models.OrderDraft},
			want: []ProductQuantity{
				{ProductID: 100, Quantity: 1},
				{ProductID: 100, VariantID: intPtr(7), Quantity: 2},
				{ProductID: 100, VariantID: intPtr(8), Quantity: 3},
			},
		},
		{
			name: "lines with unknown owner are skipped",
			lines: []*models.OrderLine{
				line(1, 100, nil, 2),
				line(99, 100, nil, 50),
			},
			ownerStatus: map[int]models.OrderStatus{1: models.OrderVerified},
			want: []ProductQuantity{
				{ProductID: 100, Quantity: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateProducts(tt.lines, tt.ownerStatus)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNetQuantities_KeepsZeroSums(t *testing.T) {
	lines := []*models.OrderLine{
		line(1, 100, nil, 3),
		line(2, 100, nil, -3),
	}
	ownerStatus := map[int]models.OrderStatus{
		1: models.OrderInvoiced,
		2: models.OrderDraft,
	}

	net := NetQuantities(lines, ownerStatus)

	// The planner needs the zero entry to know the pair once existed.
	quantity, ok := net[ProductKey{ProductID: 100}]
	assert.True(t, ok)
	assert.Equal(t, 0, quantity)
}

func TestKeyFor_DistinguishesAbsentVariant(t *testing.T) {
	assert.NotEqual(t, KeyFor(100, nil), KeyFor(100, intPtr(7)))
	assert.Equal(t, KeyFor(100, nil), KeyFor(100, nil))
	assert.Nil(t, KeyFor(100, nil).VariantPtr())
	assert.Equal(t, 7, *KeyFor(100, intPtr(7)).VariantPtr())
}
