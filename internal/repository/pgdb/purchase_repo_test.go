package pgdb

import (
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPurchaseWhere(t *testing.T) {
	where, args := purchaseWhere(nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	category, admin := int64(3), int64(7)

	where, args = purchaseWhere(&domain.PurchaseFilter{StartDate: &start, CategoryID: &category, AdminID: &admin})
	assert.Equal(t,
		" WHERE pu.purchased_at >= $1 AND p.admin_id = $2 AND "+
			"EXISTS (SELECT 1 FROM product_categories fc WHERE fc.product_id = pu.product_id AND fc.category_id = $3)",
		where,
	)
	assert.Equal(t, []any{start, admin, category}, args)
}

func TestTruncUnit(t *testing.T) {
	assert.Equal(t, "hour", truncUnit(domain.GranularityHour))
	assert.Equal(t, "day", truncUnit(domain.GranularityDay))
	assert.Equal(t, "day", truncUnit(domain.GranularityWeek))
	assert.Equal(t, "year", truncUnit(domain.GranularityYear))
}

func TestCountByPeriodQuery(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	customer := int64(5)

	query, args := countByPeriodQuery(&domain.PurchaseFilter{CustomerID: &customer}, domain.GranularityHour, loc)
	assert.Contains(t, query, "date_trunc('hour', pu.purchased_at AT TIME ZONE $2)")
	assert.Contains(t, query, " WHERE pu.customer_id = $1")
	assert.Contains(t, query, "GROUP BY bucket")
	assert.Equal(t, []any{customer, "Europe/Moscow"}, args)

	query, args = countByPeriodQuery(nil, domain.GranularityYear, nil)
	assert.Contains(t, query, "date_trunc('year', pu.purchased_at AT TIME ZONE $1)")
	assert.NotContains(t, query, "WHERE")
	assert.Equal(t, []any{"UTC"}, args)
}
