package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/report"
)

type AuthUC interface {
	Login(ctx context.Context, req *LoginReq) (*LoginRes, error)
	Authenticate(ctx context.Context, adminID int64) (*domain.Admin, error)
	Me(ctx context.Context) (*Me, error)
}

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*ProductDetails, error)
	ListProducts(ctx context.Context, page Page) (*ProductList, error)
	UploadImages(ctx context.Context, productID int64, files []ImageFile) ([]domain.ProductImage, error)
}

type CategoryUC interface {
	CreateCategory(ctx context.Context, req *CreateCategoryReq) (*domain.Category, error)
	UpdateCategory(ctx context.Context, req *UpdateCategoryReq) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (*CategoryDetails, error)
	ListCategories(ctx context.Context, page Page) (*CategoryList, error)
}

type CustomerUC interface {
	CreateCustomer(ctx context.Context, req *CreateCustomerReq) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, req *UpdateCustomerReq) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomer(ctx context.Context, id int64) (*CustomerDetails, error)
	ListCustomers(ctx context.Context, page Page) (*CustomerList, error)
}

type PurchaseUC interface {
	CreatePurchase(ctx context.Context, req *CreatePurchaseReq) (*domain.PurchaseDetails, error)
	ListPurchases(ctx context.Context, params report.FilterParams, page Page) (*PurchaseList, error)
}

type ReportUC interface {
	CountByGranularity(ctx context.Context, granularity string, params report.FilterParams) (*CountByGranularityRes, error)
	DailyReport(ctx context.Context, date string) (*domain.DailyReport, error)
	MostPurchasedByCategory(ctx context.Context, limit int) ([]domain.CategoryProducts, error)
	TopRevenueByCategory(ctx context.Context) ([]domain.CategoryProducts, error)
}

type AuditLogUC interface {
	List(ctx context.Context, page Page) (*AuditLogList, error)
	Recent(ctx context.Context) ([]domain.AuditLog, error)
	ByEntity(ctx context.Context, entityType string, id int64) (domain.Subject, []domain.AuditLog, error)
}

type SchedulerUC interface {
	TriggerDailyReport(ctx context.Context, date string) (time.Time, error)
	TriggerFirstPurchase(ctx context.Context, purchaseID int64) error
	Status(ctx context.Context) (*SchedulerStatus, error)
}

var (
	_ AuthUC      = (*AuthUseCase)(nil)
	_ ProductUC   = (*ProductUseCase)(nil)
	_ CategoryUC  = (*CategoryUseCase)(nil)
	_ CustomerUC  = (*CustomerUseCase)(nil)
	_ PurchaseUC  = (*PurchaseUseCase)(nil)
	_ ReportUC    = (*ReportUseCase)(nil)
	_ AuditLogUC  = (*AuditLogUseCase)(nil)
	_ SchedulerUC = (*SchedulerUseCase)(nil)
)
