package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
)

// TxManager выполняет fn в одной транзакции PostgreSQL.
// Репозитории получают транзакцию из контекста.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
	CountOwned(ctx context.Context, id int64) (*AdminCounters, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Category, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	List(ctx context.Context, page Page) ([]domain.Category, int64, error)
	Stats(ctx context.Context, id int64) (*CategoryStats, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	// GetByID возвращает товар вместе с категориями и изображениями.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// GetForUpdate блокирует строку товара до конца транзакции.
	GetForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	// DecrementStock уменьшает остаток, только если его хватает.
	// ok == false означает, что строка не изменена; stock содержит текущий остаток.
	DecrementStock(ctx context.Context, id int64, quantity int64) (stock int64, ok bool, err error)
	List(ctx context.Context, page Page) ([]domain.Product, int64, error)
	Stats(ctx context.Context, id int64) (*ProductStats, error)
}

type ProductCategoryRepository interface {
	Create(ctx context.Context, productID, categoryID int64) (*domain.ProductCategory, error)
	Delete(ctx context.Context, id int64) error
	ListByProduct(ctx context.Context, productID int64) ([]domain.ProductCategory, error)
	DeleteByProduct(ctx context.Context, productID int64) error
	DeleteByCategory(ctx context.Context, categoryID int64) error
}

type ProductImageRepository interface {
	CreateMany(ctx context.Context, images []domain.ProductImage) ([]domain.ProductImage, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error)
	DeleteByProduct(ctx context.Context, productID int64) error
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	List(ctx context.Context, page Page) ([]domain.Customer, int64, error)
	Stats(ctx context.Context, id int64) (*CustomerStats, error)
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error)
	GetByID(ctx context.Context, id int64) (*domain.Purchase, error)
	GetDetails(ctx context.Context, id int64) (*domain.PurchaseDetails, error)
	// IsFirstForProduct сообщает, что раньше покупки нет ни одной покупки того же товара
	// при упорядочивании по (purchased_at, id).
	IsFirstForProduct(ctx context.Context, purchase *domain.Purchase) (bool, error)
	ListDetails(ctx context.Context, filter *domain.PurchaseFilter, page Page) ([]domain.PurchaseDetails, int64, error)
	Facts(ctx context.Context, filter *domain.PurchaseFilter) ([]domain.PurchaseFact, error)
	// CountByPeriod считает покупки под фильтром, сгруппированные в базе по началу периода шага g в поясе loc.
	CountByPeriod(ctx context.Context, filter *domain.PurchaseFilter, g domain.Granularity, loc *time.Location) ([]domain.BucketCount, error)
	// MostPurchasedByCategory возвращает по каждой категории до limit товаров с наибольшим числом покупок.
	MostPurchasedByCategory(ctx context.Context, limit int) ([]domain.CategoryProductTotal, error)
	// TopRevenueByCategory возвращает categories самых доходных категорий и до products товаров в каждой.
	TopRevenueByCategory(ctx context.Context, categories, products int) ([]domain.CategoryProductTotal, error)
	DeleteByProduct(ctx context.Context, productID int64) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) (*domain.AuditLog, error)
	List(ctx context.Context, page Page) ([]domain.AuditLog, int64, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]domain.AuditLog, error)
	ListBySubject(ctx context.Context, subject domain.Subject) ([]domain.AuditLog, error)
	DeleteBySubject(ctx context.Context, subject domain.Subject) error
}

// OutboxRepository — таблица исходящих событий. Каждый потребитель забирает только свои типы событий.
type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, eventTypes []string, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id string) error
	MarkAsFailed(ctx context.Context, id string) error
	// Release возвращает событие в PENDING без учёта попытки: получатель временно недоступен.
	Release(ctx context.Context, id string) error
}

// CacheRepository хранит сериализованные ответы отчётов.
type CacheRepository interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ObjectStorage — хранилище файлов изображений.
type ObjectStorage interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}
