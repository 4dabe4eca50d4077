package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ProductUseCase реализует управление товарами, их категориями и изображениями.
type ProductUseCase struct {
	tx           TxManager
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	linkRepo     ProductCategoryRepository
	imageRepo    ProductImageRepository
	purchaseRepo PurchaseRepository
	auditRepo    AuditLogRepository
	imagesInfra  ImagesInfra
	audit        *AuditRecorder
	cache        CacheRepository
	logger       logger.Logger
}

func NewProductUC(
	tx TxManager,
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	linkRepo ProductCategoryRepository,
	imageRepo ProductImageRepository,
	purchaseRepo PurchaseRepository,
	auditRepo AuditLogRepository,
	imagesInfra ImagesInfra,
	audit *AuditRecorder,
	cache CacheRepository,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		tx:           tx,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		linkRepo:     linkRepo,
		imageRepo:    imageRepo,
		purchaseRepo: purchaseRepo,
		auditRepo:    auditRepo,
		imagesInfra:  imagesInfra,
		audit:        audit,
		cache:        cache,
		logger:       logger,
	}
}

// CreateProduct создаёт товар текущего администратора вместе с изображениями и категориями.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	adminID, ok := ActorFromContext(ctx)
	if !ok {
		return nil, e.Wrap(op, e.ErrAdminNotResolved)
	}

	product := domain.NewProduct(req.Name, req.Description, req.Price, req.Stock, adminID)
	if err := p.validateProduct(product, req.Images, true); err != nil {
		return nil, err
	}

	var created *domain.Product
	err := p.tx.Do(ctx, func(ctx context.Context) error {
		categories, err := p.loadCategories(ctx, req.CategoryIDs)
		if err != nil {
			return err
		}

		created, err = p.productRepo.Create(ctx, product)
		if err != nil {
			return err
		}
		p.audit.Record(ctx, domain.ActionCreated, domain.ProductSubject(created.ID), created.AdminID, created.Snapshot())

		if _, err := p.imageRepo.CreateMany(ctx, buildImages(created, req.Images)); err != nil {
			return err
		}

		for i := range categories {
			if err := p.associate(ctx, created, &categories[i]); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	InvalidateReports(ctx, p.cache, p.logger)
	p.logger.Infof("Product %d created by admin %d", created.ID, adminID)

	return p.productRepo.GetByID(ctx, created.ID)
}

// UpdateProduct частично обновляет товар. Запись аудита создаётся только при реальных изменениях.
// CategoryIDs, если задан, заменяет набор категорий; Images, если задан, заменяет изображения.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	var cleanup []string
	err := p.tx.Do(ctx, func(ctx context.Context) error {
		before, err := p.productRepo.GetForUpdate(ctx, req.ID)
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
		if req.Price != nil {
			after.Price = *req.Price
		}

		var images []ImageInput
		if req.Images != nil {
			images = *req.Images
		}
		if err := p.validateProduct(&after, images, req.Images != nil); err != nil {
			return err
		}

		if changes := before.Diff(&after); !changes.Empty() {
			updated, err := p.productRepo.Update(ctx, &after)
			if err != nil {
				return err
			}
			p.audit.Record(ctx, domain.ActionUpdated, domain.ProductSubject(updated.ID), updated.AdminID, changes)
		}

		if req.CategoryIDs != nil {
			if err := p.replaceCategories(ctx, &after, *req.CategoryIDs); err != nil {
				return err
			}
		}

		if req.Images != nil {
			old, err := p.imageRepo.ListByProduct(ctx, after.ID)
			if err != nil {
				return err
			}
			if err := p.imageRepo.DeleteByProduct(ctx, after.ID); err != nil {
				return err
			}
			if _, err := p.imageRepo.CreateMany(ctx, buildImages(&after, images)); err != nil {
				return err
			}
			cleanup = objectKeys(old)
		}

		return nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(cleanup) > 0 {
		p.imagesInfra.CleanupImages(cleanup)
	}
	InvalidateReports(ctx, p.cache, p.logger)

	return p.productRepo.GetByID(ctx, req.ID)
}

// DeleteProduct удаляет товар и зависимые строки в явном порядке.
// Аудит пишется только для самого товара, после удаления его прежних записей.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	var images []domain.ProductImage
	err := p.tx.Do(ctx, func(ctx context.Context) error {
		product, err := p.productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		images, err = p.imageRepo.ListByProduct(ctx, id)
		if err != nil {
			return err
		}

		steps := []func(ctx context.Context, id int64) error{
			p.linkRepo.DeleteByProduct,
			p.imageRepo.DeleteByProduct,
			p.purchaseRepo.DeleteByProduct,
			func(ctx context.Context, id int64) error {
				return p.auditRepo.DeleteBySubject(ctx, domain.ProductSubject(id))
			},
			p.productRepo.Delete,
		}
		for _, step := range steps {
			if err := step(ctx, id); err != nil {
				return err
			}
		}

		p.audit.Record(ctx, domain.ActionDeleted, domain.ProductSubject(id), product.AdminID, product.Snapshot())
		return nil
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	if keys := objectKeys(images); len(keys) > 0 {
		p.imagesInfra.CleanupImages(keys)
	}
	InvalidateReports(ctx, p.cache, p.logger)

	return nil
}

// GetProduct возвращает товар с показателями продаж.
func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*ProductDetails, error) {
	const op = "ProductUseCase.GetProduct"

	var (
		product *domain.Product
		stats   *ProductStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = p.productRepo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = p.productRepo.Stats(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &ProductDetails{Product: *product, Stats: stats}, nil
}

func (p *ProductUseCase) ListProducts(ctx context.Context, page Page) (*ProductList, error) {
	products, total, err := p.productRepo.List(ctx, page)
	if err != nil {
		return nil, e.Wrap("ProductUseCase.ListProducts", err)
	}

	return &ProductList{Products: products, Pagination: NewPagination(page, total)}, nil
}

// UploadImages сохраняет файлы в объектное хранилище и привязывает их к товару.
// При ошибке записи в БД загруженные объекты удаляются.
func (p *ProductUseCase) UploadImages(ctx context.Context, productID int64, files []ImageFile) ([]domain.ProductImage, error) {
	const op = "ProductUseCase.UploadImages"

	if len(files) == 0 {
		return nil, e.Wrap(op, e.NewValidationError("images", e.ErrNoImages.Error()))
	}

	product, err := p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	uploaded, err := p.imagesInfra.UploadImages(ctx, NewUploadImagesReq(fmt.Sprintf("products/%d", product.ID), files))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	images := make([]domain.ProductImage, 0, len(files))
	for i, f := range files {
		img := domain.NewProductImage(product.ID, uploaded.URLs[i], f.Caption, product.Name)
		img.ObjectKey = uploaded.ImagesKeys[i]
		images = append(images, *img)
	}

	var created []domain.ProductImage
	err = p.tx.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.imageRepo.CreateMany(ctx, images)
		return err
	})
	if err != nil {
		p.logger.Warnf(
			"Cleaning up orphaned images after transaction failure. product_id: %d, error: %v",
			product.ID,
			e.Wrap(op, err),
		)
		p.imagesInfra.CleanupImages(uploaded.ImagesKeys)
		return nil, e.Wrap(op, err)
	}

	return created, nil
}

// replaceCategories приводит набор категорий товара к ids, записывая аудит каждой привязки и отвязки.
func (p *ProductUseCase) replaceCategories(ctx context.Context, product *domain.Product, ids []int64) error {
	current, err := p.linkRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return err
	}

	wanted, err := p.loadCategories(ctx, ids)
	if err != nil {
		return err
	}

	currentIDs := make([]int64, 0, len(current))
	for _, link := range current {
		currentIDs = append(currentIDs, link.CategoryID)
	}

	removed, err := p.categoryRepo.GetByIDs(ctx, currentIDs)
	if err != nil {
		return err
	}
	names := make(map[int64]*domain.Category, len(removed))
	for i := range removed {
		names[removed[i].ID] = &removed[i]
	}

	for _, link := range current {
		if slices.Contains(ids, link.CategoryID) {
			continue
		}

		if err := p.linkRepo.Delete(ctx, link.ID); err != nil {
			return err
		}

		category := names[link.CategoryID]
		if category == nil {
			category = &domain.Category{ID: link.CategoryID}
		}
		p.audit.Record(ctx, domain.ActionCategoryDisassociated, domain.ProductCategorySubject(link.ID),
			product.AdminID, domain.AssociationChanges(category))
	}

	for i := range wanted {
		if slices.Contains(currentIDs, wanted[i].ID) {
			continue
		}
		if err := p.associate(ctx, product, &wanted[i]); err != nil {
			return err
		}
	}

	return nil
}

func (p *ProductUseCase) associate(ctx context.Context, product *domain.Product, category *domain.Category) error {
	link, err := p.linkRepo.Create(ctx, product.ID, category.ID)
	if err != nil {
		return err
	}

	p.audit.Record(ctx, domain.ActionCategoryAssociated, domain.ProductCategorySubject(link.ID),
		product.AdminID, domain.AssociationChanges(category))
	return nil
}

// loadCategories возвращает категории в порядке ids без повторов. Отсутствующая категория даёт NotFoundError.
func (p *ProductUseCase) loadCategories(ctx context.Context, ids []int64) ([]domain.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := p.categoryRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Category, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	result := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, e.NewNotFoundError("category", id)
		}
		result = append(result, c)
	}

	return result, nil
}

// validateProduct проверяет атрибуты товара и изображения.
// requireImages — у товара должно остаться хотя бы одно изображение.
func (p *ProductUseCase) validateProduct(product *domain.Product, images []ImageInput, requireImages bool) error {
	v := &e.ValidationError{}
	appendFields(v, product.Validate())

	if requireImages && len(images) == 0 {
		v.Add("images", "must have at least one image")
	}
	for _, img := range buildImages(product, images) {
		appendFields(v, img.Validate())
	}

	return v.OrNil()
}

func appendFields(dst *e.ValidationError, err error) {
	var v *e.ValidationError
	if errors.As(err, &v) {
		dst.Fields = append(dst.Fields, v.Fields...)
	}
}

func buildImages(product *domain.Product, inputs []ImageInput) []domain.ProductImage {
	images := make([]domain.ProductImage, 0, len(inputs))
	for _, in := range inputs {
		images = append(images, *domain.NewProductImage(product.ID, in.URL, in.Caption, product.Name))
	}

	return images
}

func objectKeys(images []domain.ProductImage) []string {
	var keys []string
	for _, img := range images {
		if img.ObjectKey != "" {
			keys = append(keys, img.ObjectKey)
		}
	}

	return keys
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
