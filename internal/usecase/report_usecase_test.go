package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountByGranularity(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	buy(t, env, customer.ID, product.ID, 1, reportDay.Add(9*time.Hour))
	buy(t, env, customer.ID, product.ID, 1, reportDay.Add(15*time.Hour))

	res, err := env.reportUC().CountByGranularity(context.Background(), "day", report.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2024-01-01": 2}, res.GroupedData)
	assert.Equal(t, int64(2), res.TotalPurchases)

	_, err = env.reportUC().CountByGranularity(context.Background(), "fortnight", report.FilterParams{})
	assert.True(t, e.IsValidation(err))
}

func TestDailyReport_CachedUntilInvalidated(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	buy(t, env, customer.ID, product.ID, 1, reportDay.Add(time.Hour))

	uc := env.reportUC()
	first, err := uc.DailyReport(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalPurchases)

	// покупка через usecase сбрасывает кэш отчётов
	buy(t, env, customer.ID, product.ID, 1, reportDay.Add(2*time.Hour))

	second, err := uc.DailyReport(context.Background(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.TotalPurchases)
}

func TestCountByGranularity_WeeksStartOnSunday(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	// 2024-01-06 суббота, 2024-01-07 воскресенье
	buy(t, env, customer.ID, product.ID, 1, time.Date(2024, 1, 6, 23, 0, 0, 0, time.UTC))
	buy(t, env, customer.ID, product.ID, 1, time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC))
	buy(t, env, customer.ID, product.ID, 1, time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC))

	res, err := env.reportUC().CountByGranularity(context.Background(), "week", report.FilterParams{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2024-W00": 1, "2024-W01": 2}, res.GroupedData)
	assert.Equal(t, int64(3), res.TotalPurchases)
}

func TestCategoryReports(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	books := env.addCategory("Books", admin.ID)
	music := env.addCategory("Music", admin.ID)
	novel := env.addProduct("Novel", "10.00", 10, admin.ID, books.ID)
	poems := env.addProduct("Poems", "50.00", 10, admin.ID, books.ID)
	vinyl := env.addProduct("Vinyl", "30.00", 10, admin.ID, music.ID)
	customer := env.addCustomer("buyer@shop.test")

	buy(t, env, customer.ID, novel.ID, 1, reportDay)
	buy(t, env, customer.ID, novel.ID, 1, reportDay.Add(time.Hour))
	buy(t, env, customer.ID, poems.ID, 1, reportDay.Add(2*time.Hour))
	buy(t, env, customer.ID, vinyl.ID, 1, reportDay.Add(3*time.Hour))

	uc := env.reportUC()

	most, err := uc.MostPurchasedByCategory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, most, 2)
	assert.Equal(t, "Books", most[0].Category.Name)
	require.Len(t, most[0].Products, 1)
	assert.Equal(t, novel.ID, most[0].Products[0].ID)
	assert.Equal(t, int64(2), most[0].Products[0].PurchaseCount)

	top, err := uc.TopRevenueByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Books", top[0].Category.Name)
	assert.Equal(t, "70.00", top[0].Revenue.StringFixed(2))
	assert.Equal(t, poems.ID, top[0].Products[0].ID)
	assert.Equal(t, "Music", top[1].Category.Name)
}
