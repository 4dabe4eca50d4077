package usecase

import (
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PAGINATION

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Page — номер страницы (с единицы) и её размер.
type Page struct {
	Number  int
	PerPage int
}

// NewPage нормализует параметры пагинации. perPage <= 0 заменяется на fallback.
func NewPage(number, perPage, fallback int) Page {
	if number < 1 {
		number = 1
	}
	if fallback <= 0 {
		fallback = defaultPerPage
	}
	if perPage <= 0 {
		perPage = fallback
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Page{Number: number, PerPage: perPage}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

type Pagination struct {
	CurrentPage int
	NextPage    *int
	PrevPage    *int
	TotalPages  int
	TotalCount  int64
}

func NewPagination(page Page, total int64) Pagination {
	pages := int((total + int64(page.PerPage) - 1) / int64(page.PerPage))
	p := Pagination{CurrentPage: page.Number, TotalPages: pages, TotalCount: total}

	if page.Number < pages {
		next := page.Number + 1
		p.NextPage = &next
	}
	if page.Number > 1 {
		prev := page.Number - 1
		p.PrevPage = &prev
	}

	return p
}

// STATS

type AdminCounters struct {
	Products   int64
	Categories int64
}

type ProductStats struct {
	TotalPurchases int64
	TotalRevenue   decimal.Decimal
	FirstPurchase  *time.Time
	LastPurchase   *time.Time
}

type CategoryStats struct {
	ProductsCount  int64
	TotalPurchases int64
	TotalRevenue   decimal.Decimal
}

type CustomerStats struct {
	PurchaseCount int64
	TotalSpent    decimal.Decimal
	LastPurchase  *time.Time
}

// PRODUCT USECASE

// ImageInput — изображение, заданное ссылкой.
type ImageInput struct {
	URL     string
	Caption string
}

type CreateProductReq struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	CategoryIDs []int64
	Images      []ImageInput
}

// UpdateProductReq — частичное обновление. nil означает «не менять».
// Остаток не редактируется: он меняется только покупками.
type UpdateProductReq struct {
	ID          int64
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CategoryIDs *[]int64
	Images      *[]ImageInput
}

type ProductList struct {
	Products   []domain.Product
	Pagination Pagination
}

type ProductDetails struct {
	Product domain.Product
	Stats   *ProductStats
}

// ImageFile представляет изображение, загруженное через multipart/form-data.
type ImageFile struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
	Caption  string
}

// UploadImagesReq — запрос на загрузку изображений продукта в хранилище.
type UploadImagesReq struct {
	Prefix string
	Images []ImageFile
}

// UploadImagesRes — ключи загруженных объектов и их публичные адреса, в порядке запроса.
type UploadImagesRes struct {
	ImagesKeys []string
	URLs       []string
}

// CATEGORY USECASE

type CreateCategoryReq struct {
	Name        string
	Description string
}

type UpdateCategoryReq struct {
	ID          int64
	Name        *string
	Description *string
}

type CategoryList struct {
	Categories []domain.Category
	Pagination Pagination
}

type CategoryDetails struct {
	Category domain.Category
	Stats    *CategoryStats
}

// CUSTOMER USECASE

type CreateCustomerReq struct {
	Email   string
	Name    string
	Phone   *string
	Address *string
}

type UpdateCustomerReq struct {
	ID      int64
	Email   *string
	Name    *string
	Phone   *string
	Address *string
}

type CustomerList struct {
	Customers  []domain.Customer
	Pagination Pagination
}

type CustomerDetails struct {
	Customer domain.Customer
	Stats    *CustomerStats
}

// PURCHASE USECASE

type CreatePurchaseReq struct {
	CustomerID  int64
	ProductID   int64
	Quantity    int64
	PurchasedAt *time.Time
}

type PurchaseList struct {
	Purchases  []domain.PurchaseDetails
	Pagination Pagination
}

// REPORTS

type CountByGranularityRes struct {
	Granularity    domain.Granularity
	GroupedData    map[string]int64
	TotalPurchases int64
}

// AUTH

type LoginReq struct {
	Email    string
	Password string
}

type LoginRes struct {
	Token     string
	ExpiresAt time.Time
	Admin     domain.Admin
}

type Me struct {
	Admin    domain.Admin
	Counters *AdminCounters
}

// AUDIT LOGS

type AuditLogList struct {
	AuditLogs  []domain.AuditLog
	Pagination Pagination
}

// SCHEDULER

type SchedulerStatus struct {
	CronSpec string
	NextRun  *time.Time
	Queues   map[domain.Queue]int64
}

// INFRASTRUCTURE

type FirstPurchaseEmail struct {
	Admin     domain.Admin
	Purchase  domain.Purchase
	Product   domain.Product
	Customer  domain.Customer
	IsCreator bool
}

type DailyReportEmail struct {
	Admin  domain.Admin
	Report *domain.DailyReport
}

type WriteRawMessageReq struct {
	Key       int64
	EventType string
	Payload   []byte
}

// MAPPERS

func NewUploadImagesReq(prefix string, images []ImageFile) *UploadImagesReq {
	return &UploadImagesReq{
		Prefix: prefix,
		Images: images,
	}
}

func NewUploadImagesRes(imagesKeys, urls []string) *UploadImagesRes {
	return &UploadImagesRes{
		ImagesKeys: imagesKeys,
		URLs:       urls,
	}
}

func NewImageFile(data []byte, mimeType string, size int64, name, caption string) *ImageFile {
	return &ImageFile{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
		Caption:  caption,
	}
}

func NewWriteRawMessageReq(key int64, eventType string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:       key,
		EventType: eventType,
		Payload:   payload,
	}
}
