package usecase

import (
	"context"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type CustomerUseCase struct {
	tx           TxManager
	customerRepo CustomerRepository
	cache        CacheRepository
	logger       logger.Logger
}

func NewCustomerUC(tx TxManager, customerRepo CustomerRepository, cache CacheRepository, logger logger.Logger) *CustomerUseCase {
	return &CustomerUseCase{
		tx:           tx,
		customerRepo: customerRepo,
		cache:        cache,
		logger:       logger,
	}
}

func (c *CustomerUseCase) CreateCustomer(ctx context.Context, req *CreateCustomerReq) (*domain.Customer, error) {
	const op = "CustomerUseCase.CreateCustomer"

	customer := domain.NewCustomer(req.Email, req.Name, req.Phone, req.Address)
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Customer
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		if err := c.ensureUniqueEmail(ctx, customer.Email, 0); err != nil {
			return err
		}

		var err error
		created, err = c.customerRepo.Create(ctx, customer)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return created, nil
}

func (c *CustomerUseCase) UpdateCustomer(ctx context.Context, req *UpdateCustomerReq) (*domain.Customer, error) {
	const op = "CustomerUseCase.UpdateCustomer"

	var updated *domain.Customer
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		current, err := c.customerRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		email, name, phone, address := current.Email, current.Name, current.Phone, current.Address
		if req.Email != nil {
			email = *req.Email
		}
		if req.Name != nil {
			name = *req.Name
		}
		if req.Phone != nil {
			phone = req.Phone
		}
		if req.Address != nil {
			address = req.Address
		}

		next := domain.NewCustomer(email, name, phone, address)
		next.ID, next.CreatedAt = current.ID, current.CreatedAt
		if err := next.Validate(); err != nil {
			return err
		}

		if next.Email != current.Email {
			if err := c.ensureUniqueEmail(ctx, next.Email, next.ID); err != nil {
				return err
			}
		}

		updated, err = c.customerRepo.Update(ctx, next)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	InvalidateReports(ctx, c.cache, c.logger)
	return updated, nil
}

// DeleteCustomer удаляет покупателя, его покупки удаляются каскадно.
func (c *CustomerUseCase) DeleteCustomer(ctx context.Context, id int64) error {
	const op = "CustomerUseCase.DeleteCustomer"

	err := c.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := c.customerRepo.GetByID(ctx, id); err != nil {
			return err
		}

		return c.customerRepo.Delete(ctx, id)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	InvalidateReports(ctx, c.cache, c.logger)
	return nil
}

func (c *CustomerUseCase) GetCustomer(ctx context.Context, id int64) (*CustomerDetails, error) {
	const op = "CustomerUseCase.GetCustomer"

	var (
		customer *domain.Customer
		stats    *CustomerStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		customer, err = c.customerRepo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.customerRepo.Stats(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &CustomerDetails{Customer: *customer, Stats: stats}, nil
}

func (c *CustomerUseCase) ListCustomers(ctx context.Context, page Page) (*CustomerList, error) {
	customers, total, err := c.customerRepo.List(ctx, page)
	if err != nil {
		return nil, e.Wrap("CustomerUseCase.ListCustomers", err)
	}

	return &CustomerList{Customers: customers, Pagination: NewPagination(page, total)}, nil
}

func (c *CustomerUseCase) ensureUniqueEmail(ctx context.Context, email string, excludeID int64) error {
	exists, err := c.customerRepo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return e.NewValidationError("email", "has already been taken")
	}

	return nil
}
