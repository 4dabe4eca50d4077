package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/report"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/google/uuid"
)

// PurchaseUseCase оформляет покупки: проверка остатка, фиксация цены, списание остатка
// и уведомление о первой покупке товара.
type PurchaseUseCase struct {
	tx           TxManager
	purchaseRepo PurchaseRepository
	productRepo  ProductRepository
	customerRepo CustomerRepository
	outboxRepo   OutboxRepository
	cache        CacheRepository
	loc          *time.Location
	logger       logger.Logger
}

func NewPurchaseUC(
	tx TxManager,
	purchaseRepo PurchaseRepository,
	productRepo ProductRepository,
	customerRepo CustomerRepository,
	outboxRepo OutboxRepository,
	cache CacheRepository,
	loc *time.Location,
	logger logger.Logger,
) *PurchaseUseCase {
	if loc == nil {
		loc = time.UTC
	}

	return &PurchaseUseCase{
		tx:           tx,
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		cache:        cache,
		loc:          loc,
		logger:       logger,
	}
}

// CreatePurchase атомарно сохраняет покупку и списывает остаток товара.
// Конкурентные покупки одного товара сериализуются блокировкой строки товара.
// Уведомление о первой покупке пишется в outbox в той же транзакции.
func (p *PurchaseUseCase) CreatePurchase(ctx context.Context, req *CreatePurchaseReq) (*domain.PurchaseDetails, error) {
	const op = "PurchaseUseCase.CreatePurchase"

	if req.Quantity <= 0 {
		return nil, e.NewValidationError("quantity", "must be greater than 0")
	}

	var (
		purchase *domain.Purchase
		customer *domain.Customer
		product  *domain.Product
	)

	err := p.tx.Do(ctx, func(ctx context.Context) error {
		var err error

		customer, err = p.customerRepo.GetByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		product, err = p.productRepo.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, e.ErrNotFound) {
				return e.NewValidationError("product", "must exist")
			}
			return err
		}

		if req.Quantity > product.Stock {
			return e.NewValidationError("quantity", fmt.Sprintf("exceeds available stock (%d)", product.Stock))
		}

		var purchasedAt time.Time
		if req.PurchasedAt != nil {
			purchasedAt = *req.PurchasedAt
		}

		purchase = domain.NewPurchase(customer.ID, product, req.Quantity, purchasedAt)
		if err := purchase.Validate(); err != nil {
			return err
		}

		purchase, err = p.purchaseRepo.Create(ctx, purchase)
		if err != nil {
			return err
		}

		stock, ok, err := p.productRepo.DecrementStock(ctx, product.ID, purchase.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return e.NewInsufficientStockError(product.ID, stock)
		}
		product.Stock = stock

		if err := p.writePurchaseCreated(ctx, purchase, stock); err != nil {
			return err
		}

		return p.scheduleFirstPurchaseNotification(ctx, purchase)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	InvalidateReports(ctx, p.cache, p.logger)

	details, err := p.purchaseRepo.GetDetails(ctx, purchase.ID)
	if err != nil {
		p.logger.Warnf("Failed to load purchase %d details: %v", purchase.ID, e.Wrap(op, err))
		return &domain.PurchaseDetails{Purchase: *purchase, Customer: *customer, Product: *product}, nil
	}

	return details, nil
}

// ListPurchases возвращает покупки, удовлетворяющие фильтрам, новые первыми.
func (p *PurchaseUseCase) ListPurchases(ctx context.Context, params report.FilterParams, page Page) (*PurchaseList, error) {
	const op = "PurchaseUseCase.ListPurchases"

	filter, err := report.ParseFilter(params, p.loc)
	if err != nil {
		return nil, err
	}

	purchases, total, err := p.purchaseRepo.ListDetails(ctx, filter, page)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &PurchaseList{Purchases: purchases, Pagination: NewPagination(page, total)}, nil
}

// writePurchaseCreated кладёт событие в outbox в той же транзакции, что и покупка.
func (p *PurchaseUseCase) writePurchaseCreated(ctx context.Context, purchase *domain.Purchase, stockLeft int64) error {
	payload, err := json.Marshal(PurchaseCreatedPayload{
		PurchaseID:  purchase.ID,
		CustomerID:  purchase.CustomerID,
		ProductID:   purchase.ProductID,
		Quantity:    purchase.Quantity,
		TotalPrice:  purchase.TotalPrice.StringFixed(2),
		StockLeft:   stockLeft,
		PurchasedAt: purchase.PurchasedAt,
	})
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(uuid.NewString(), purchase.ProductID, EventPurchaseCreated, payload))
	return err
}

// scheduleFirstPurchaseNotification кладёт задачу уведомления в outbox, если покупка первая для товара.
// Строка товара уже заблокирована, поэтому параллельная покупка того же товара не пройдёт эту проверку одновременно.
func (p *PurchaseUseCase) scheduleFirstPurchaseNotification(ctx context.Context, purchase *domain.Purchase) error {
	first, err := p.purchaseRepo.IsFirstForProduct(ctx, purchase)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	job, err := NewFirstPurchaseJob(purchase.ID)
	if err != nil {
		return err
	}

	event, err := NewJobOutboxEvent(purchase.ProductID, job)
	if err != nil {
		return err
	}

	if _, err := p.outboxRepo.Create(ctx, event); err != nil {
		return err
	}

	p.logger.Infof("First purchase of product %d, notification scheduled (purchase %d)", purchase.ProductID, purchase.ID)
	return nil
}
