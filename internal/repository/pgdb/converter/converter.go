package converter

import (
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
)

// AdminConverter преобразует сущности Admin между domain и моделью PostgreSQL.
type AdminConverter interface {
	ToModel(entity *domain.Admin) *AdminModel
	ToEntity(model *AdminModel) *domain.Admin
}

// CategoryConverter преобразует сущности Category между domain и моделью PostgreSQL.
type CategoryConverter interface {
	ToModel(entity *domain.Category) *CategoryModel
	ToEntity(model *CategoryModel) *domain.Category
}

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

type ProductImageConverter interface {
	ToModel(entity *domain.ProductImage) *ProductImageModel
	ToEntity(model *ProductImageModel) *domain.ProductImage
}

type ProductCategoryConverter interface {
	ToEntity(model *ProductCategoryModel) *domain.ProductCategory
}

type CustomerConverter interface {
	ToModel(entity *domain.Customer) *CustomerModel
	ToEntity(model *CustomerModel) *domain.Customer
}

type PurchaseConverter interface {
	ToModel(entity *domain.Purchase) *PurchaseModel
	ToEntity(model *PurchaseModel) *domain.Purchase
}

type AuditLogConverter interface {
	ToEntity(model *AuditLogModel) *domain.AuditLog
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}
