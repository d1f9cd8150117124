package orders

import (
	"testing"
	"time"

	"event-registration-platform/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id int, status models.OrderStatus, createdAt time.Time) *models.Order {
	return &models.Order{ID: id, Status: status, CreatedAt: createdAt}
}

func TestSelectTargetOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no orders signals create-new", func(t *testing.T) {
		chosen, skipped := SelectTargetOrder(nil)
		assert.Nil(t, chosen)
		assert.Empty(t, skipped)
	})

	t.Run("only finalized orders signals create-new", func(t *testing.T) {
		chosen, skipped := SelectTargetOrder([]*models.Order{
			order(1, models.OrderInvoiced, base),
			order(2, models.OrderCancelled, base.Add(time.Hour)),
			order(3, models.OrderVerified, base.Add(2*time.Hour)),
		})
		assert.Nil(t, chosen)
		assert.Empty(t, skipped)
	})

	t.Run("draft order wins over invoiced order", func(t *testing.T) {
		draft := order(2, models.OrderDraft, base)
		chosen, skipped := SelectTargetOrder([]*models.Order{
			order(1, models.OrderInvoiced, base.Add(time.Hour)),
			draft,
		})
		require.NotNil(t, chosen)
		assert.Equal(t, draft.ID, chosen.ID)
		assert.Empty(t, skipped)
	})

	t.Run("newest draft wins when several are editable", func(t *testing.T) {
		older := order(1, models.OrderDraft, base)
		newer := order(2, models.OrderDraft, base.Add(time.Hour))
		chosen, skipped := SelectTargetOrder([]*models.Order{older, newer})

		require.NotNil(t, chosen)
		assert.Equal(t, newer.ID, chosen.ID)
		require.Len(t, skipped, 1)
		assert.Equal(t, older.ID, skipped[0].ID)
	})

	t.Run("identical creation times break ties by id", func(t *testing.T) {
		first := order(1, models.OrderDraft, base)
		second := order(2, models.OrderDraft, base)
		chosen, _ := SelectTargetOrder([]*models.Order{second, first})

		require.NotNil(t, chosen)
		assert.Equal(t, 2, chosen.ID)
	})
}
