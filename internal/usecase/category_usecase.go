package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type CategoryUseCase struct {
	tx           TxManager
	categoryRepo CategoryRepository
	linkRepo     ProductCategoryRepository
	auditRepo    AuditLogRepository
	audit        *AuditRecorder
	cache        CacheRepository
	logger       logger.Logger
}

func NewCategoryUC(
	tx TxManager,
	categoryRepo CategoryRepository,
	linkRepo ProductCategoryRepository,
	auditRepo AuditLogRepository,
	audit *AuditRecorder,
	cache CacheRepository,
	logger logger.Logger,
) *CategoryUseCase {
	return &CategoryUseCase{
		tx:           tx,
		categoryRepo: categoryRepo,
		linkRepo:     linkRepo,
		auditRepo:    auditRepo,
		audit:        audit,
		cache:        cache,
		logger:       logger,
	}
}

func (c *CategoryUseCase) CreateCategory(ctx context.Context, req *CreateCategoryReq) (*domain.Category, error) {
	const op = "CategoryUseCase.CreateCategory"

	adminID, ok := ActorFromContext(ctx)
	if !ok {
		return nil, e.Wrap(op, e.ErrAdminNotResolved)
	}

	category := domain.NewCategory(req.Name, req.Description, adminID)
	if err := category.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Category
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		if err := c.ensureUniqueName(ctx, category.Name, 0); err != nil {
			return err
		}

		var err error
		created, err = c.categoryRepo.Create(ctx, category)
		if err != nil {
			return err
		}

		c.audit.Record(ctx, domain.ActionCreated, domain.CategorySubject(created.ID), created.AdminID, created.Snapshot())
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return created, nil
}

func (c *CategoryUseCase) UpdateCategory(ctx context.Context, req *UpdateCategoryReq) (*domain.Category, error) {
	const op = "CategoryUseCase.UpdateCategory"

	var result *domain.Category
	err := c.tx.Do(ctx, func(ctx context.Context) error {
		before, err := c.categoryRepo.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		after := *before
		if req.Name != nil {
			after.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			after.Description = strings.TrimSpace(*req.Description)
		}

		if err := after.Validate(); err != nil {
			return err
		}

		changes := before.Diff(&after)
		if changes.Empty() {
			result = before
			return nil
		}

		if _, ok := changes["name"]; ok {
			if err := c.ensureUniqueName(ctx, after.Name, after.ID); err != nil {
				return err
			}
		}

		result, err = c.categoryRepo.Update(ctx, &after)
		if err != nil {
			return err
		}

		c.audit.Record(ctx, domain.ActionUpdated, domain.CategorySubject(result.ID), result.AdminID, changes)
		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	InvalidateReports(ctx, c.cache, c.logger)
	return result, nil
}

// DeleteCategory удаляет связи с товарами, прежние записи аудита категории и саму категорию.
func (c *CategoryUseCase) DeleteCategory(ctx context.Context, id int64) error {
	const op = "CategoryUseCase.DeleteCategory"

	err := c.tx.Do(ctx, func(ctx context.Context) error {
		category, err := c.categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := c.linkRepo.DeleteByCategory(ctx, id); err != nil {
			return err
		}
		if err := c.auditRepo.DeleteBySubject(ctx, domain.CategorySubject(id)); err != nil {
			return err
		}
		if err := c.categoryRepo.Delete(ctx, id); err != nil {
			return err
		}

		c.audit.Record(ctx, domain.ActionDeleted, domain.CategorySubject(id), category.AdminID, category.Snapshot())
		return nil
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	InvalidateReports(ctx, c.cache, c.logger)
	return nil
}

func (c *CategoryUseCase) GetCategory(ctx context.Context, id int64) (*CategoryDetails, error) {
	const op = "CategoryUseCase.GetCategory"

	var (
		category *domain.Category
		stats    *CategoryStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		category, err = c.categoryRepo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.categoryRepo.Stats(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &CategoryDetails{Category: *category, Stats: stats}, nil
}

func (c *CategoryUseCase) ListCategories(ctx context.Context, page Page) (*CategoryList, error) {
	categories, total, err := c.categoryRepo.List(ctx, page)
	if err != nil {
		return nil, e.Wrap("CategoryUseCase.ListCategories", err)
	}

	return &CategoryList{Categories: categories, Pagination: NewPagination(page, total)}, nil
}

func (c *CategoryUseCase) ensureUniqueName(ctx context.Context, name string, excludeID int64) error {
	exists, err := c.categoryRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return e.NewValidationError("name", "has already been taken")
	}

	return nil
}
