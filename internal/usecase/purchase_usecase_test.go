package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePurchase_FixesTotalPriceAndDecrementsStock(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "19.99", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")

	got, err := env.purchaseUC().CreatePurchase(context.Background(), &CreatePurchaseReq{
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Quantity:   3,
	})
	require.NoError(t, err)

	assert.Equal(t, "59.97", got.TotalPrice.StringFixed(2))
	assert.Equal(t, int64(7), env.store.products[product.ID].Stock)
	events := fakeOutboxRepo{env.store}.ofType(EventPurchaseCreated)
	require.Len(t, events, 1)
	assert.Equal(t, product.ID, events[0].AggregateID)
	assert.Equal(t, 1, env.cache.invalidations)
}

func TestCreatePurchase_QuantityAboveStock(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")

	_, err := env.purchaseUC().CreatePurchase(context.Background(), &CreatePurchaseReq{
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Quantity:   15,
	})
	require.Error(t, err)
	assert.True(t, e.IsValidation(err))

	assert.Empty(t, env.store.purchases)
	assert.Equal(t, int64(10), env.store.products[product.ID].Stock)
}

func TestCreatePurchase_RejectsInvalidInput(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	uc := env.purchaseUC()

	_, err := uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: customer.ID, ProductID: product.ID})
	assert.True(t, e.IsValidation(err))

	_, err = uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: customer.ID, ProductID: 999, Quantity: 1})
	assert.True(t, e.IsValidation(err))

	_, err = uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: 999, ProductID: product.ID, Quantity: 1})
	assert.ErrorIs(t, err, e.ErrNotFound)

	assert.Empty(t, env.store.purchases)
}

func TestCreatePurchase_InsufficientStockRollsBack(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	env.store.failDecrement = true

	_, err := env.purchaseUC().CreatePurchase(context.Background(), &CreatePurchaseReq{
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Quantity:   1,
	})
	require.Error(t, err)
	assert.True(t, e.IsInsufficientStock(err))

	assert.Empty(t, env.store.purchases)
	assert.Empty(t, env.store.outbox)
	assert.Equal(t, int64(10), env.store.products[product.ID].Stock)
}

func TestCreatePurchase_ConcurrentBuyersNeverOversell(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	uc := env.purchaseUC()

	customers := make([]domain.Customer, 20)
	for i := range customers {
		customers[i] = env.addCustomer("buyer" + string(rune('a'+i)) + "@shop.test")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for _, c := range customers {
		wg.Add(1)
		go func(customerID int64) {
			defer wg.Done()
			_, err := uc.CreatePurchase(context.Background(), &CreatePurchaseReq{
				CustomerID: customerID,
				ProductID:  product.ID,
				Quantity:   1,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fail++
				return
			}
			ok++
		}(c.ID)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, fail)
	assert.Len(t, env.store.purchases, 10)
	assert.Equal(t, int64(0), env.store.products[product.ID].Stock)
	assert.Len(t, fakeOutboxRepo{env.store}.ofType(EventJobEnqueued), 1)
}

func TestFakeTx_RowLockHeldUntilCommit(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	repo := fakeProductRepo{env.store}

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = env.tx.Do(context.Background(), func(ctx context.Context) error {
			_, err := repo.GetForUpdate(ctx, product.ID)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	go func() {
		defer close(done)
		_ = env.tx.Do(context.Background(), func(ctx context.Context) error {
			_, err := repo.GetForUpdate(ctx, product.ID)
			return err
		})
	}()

	select {
	case <-done:
		t.Fatal("second transaction acquired a locked row")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("row lock not released on commit")
	}
}

func firstPurchaseJobs(t *testing.T, env *env) []*domain.Job {
	t.Helper()

	var jobs []*domain.Job
	for _, ev := range (fakeOutboxRepo{env.store}).ofType(EventJobEnqueued) {
		job, err := JobFromOutboxEvent(&ev)
		require.NoError(t, err)
		if job.Type == domain.JobFirstPurchaseNotification {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func TestCreatePurchase_SchedulesFirstPurchaseOnce(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	uc := env.purchaseUC()

	first, err := uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: customer.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: customer.ID, ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	jobs := firstPurchaseJobs(t, env)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.QueueDefault, jobs[0].Queue)
	assert.JSONEq(t, `{"purchase_id":`+itoa(first.ID)+`}`, string(jobs[0].Payload))
}

func TestCreatePurchase_BackdatedPurchaseIsFirstAgain(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	uc := env.purchaseUC()

	later := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	earlier := later.Add(-24 * time.Hour)
	_, err := uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: customer.ID, ProductID: product.ID, Quantity: 1, PurchasedAt: &later})
	require.NoError(t, err)
	_, err = uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: customer.ID, ProductID: product.ID, Quantity: 1, PurchasedAt: &earlier})
	require.NoError(t, err)

	assert.Len(t, firstPurchaseJobs(t, env), 2)
}

func TestCreatePurchase_FirstPurchaseJobRollsBackWithPurchase(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	customer := env.addCustomer("buyer@shop.test")
	env.store.failDecrement = true

	_, err := env.purchaseUC().CreatePurchase(context.Background(), &CreatePurchaseReq{
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Quantity:   1,
	})
	require.Error(t, err)

	assert.Empty(t, firstPurchaseJobs(t, env))

	// после отката тот же товар снова получает уведомление о первой покупке
	env.store.failDecrement = false
	_, err = env.purchaseUC().CreatePurchase(context.Background(), &CreatePurchaseReq{
		CustomerID: customer.ID,
		ProductID:  product.ID,
		Quantity:   1,
	})
	require.NoError(t, err)
	assert.Len(t, firstPurchaseJobs(t, env), 1)
}

func TestListPurchases_FiltersByCustomer(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	product := env.addProduct("Keyboard", "10.00", 10, admin.ID)
	alice := env.addCustomer("alice@shop.test")
	bob := env.addCustomer("bob@shop.test")
	uc := env.purchaseUC()

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, c := range []int64{alice.ID, bob.ID, alice.ID} {
		_, err := uc.CreatePurchase(context.Background(), &CreatePurchaseReq{CustomerID: c, ProductID: product.ID, Quantity: 1, PurchasedAt: &at})
		require.NoError(t, err)
	}

	list, err := uc.ListPurchases(context.Background(), report.FilterParams{CustomerID: itoa(alice.ID)}, NewPage(1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, list.Purchases, 2)
	assert.Equal(t, int64(2), list.Pagination.TotalCount)

	_, err = uc.ListPurchases(context.Background(), report.FilterParams{StartDate: "garbage"}, NewPage(1, 0, 0))
	assert.True(t, e.IsValidation(err))
}
