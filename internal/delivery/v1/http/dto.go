package http

import (
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// REQUESTS

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type imageRequest struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

type productRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	CategoryIDs *[]int64         `json:"category_ids"`
	Images      *[]imageRequest  `json:"images"`
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type customerRequest struct {
	Email   *string `json:"email"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type purchaseRequest struct {
	CustomerID  int64      `json:"customer_id"`
	ProductID   int64      `json:"product_id"`
	Quantity    int64      `json:"quantity"`
	PurchasedAt *time.Time `json:"purchased_at"`
}

func toImageInputs(in []imageRequest) []usecase.ImageInput {
	out := make([]usecase.ImageInput, 0, len(in))
	for _, img := range in {
		out = append(out, usecase.ImageInput{URL: img.ImageURL, Caption: img.Caption})
	}

	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}

	return *p
}

// RESPONSES

type paginationDTO struct {
	CurrentPage int   `json:"current_page"`
	NextPage    *int  `json:"next_page"`
	PrevPage    *int  `json:"prev_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
}

func toPaginationDTO(p usecase.Pagination) paginationDTO {
	return paginationDTO{
		CurrentPage: p.CurrentPage,
		NextPage:    p.NextPage,
		PrevPage:    p.PrevPage,
		TotalPages:  p.TotalPages,
		TotalCount:  p.TotalCount,
	}
}

type adminDTO struct {
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name"`
}

func toAdminDTO(a *domain.Admin) adminDTO {
	return adminDTO{ID: a.ID, Email: a.Email, Name: a.Name}
}

type categoryRefDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type categoryDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AdminID     int64     `json:"admin_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	ProductsCount  *int64  `json:"products_count,omitempty"`
	TotalPurchases *int64  `json:"total_purchases,omitempty"`
	TotalRevenue   *string `json:"total_revenue,omitempty"`
}

func toCategoryDTO(c *domain.Category) categoryDTO {
	return categoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		AdminID:     c.AdminID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCategoryDetailsDTO(d *usecase.CategoryDetails) categoryDTO {
	dto := toCategoryDTO(&d.Category)
	if d.Stats != nil {
		revenue := money(d.Stats.TotalRevenue)
		dto.ProductsCount = &d.Stats.ProductsCount
		dto.TotalPurchases = &d.Stats.TotalPurchases
		dto.TotalRevenue = &revenue
	}

	return dto
}

type imageDTO struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

func toImageDTOs(images []domain.ProductImage) []imageDTO {
	out := make([]imageDTO, 0, len(images))
	for _, img := range images {
		out = append(out, imageDTO{ID: img.ID, ImageURL: img.ImageURL, Caption: img.Caption})
	}

	return out
}

type productDTO struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       string           `json:"price"`
	Stock       int64            `json:"stock"`
	AdminID     int64            `json:"admin_id"`
	Categories  []categoryRefDTO `json:"categories"`
	Images      []imageDTO       `json:"images"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	TotalPurchases *int64     `json:"total_purchases,omitempty"`
	TotalRevenue   *string    `json:"total_revenue,omitempty"`
	FirstPurchase  *time.Time `json:"first_purchase_at,omitempty"`
	LastPurchase   *time.Time `json:"last_purchase_at,omitempty"`
}

func toProductDTO(p *domain.Product) productDTO {
	cats := make([]categoryRefDTO, 0, len(p.Categories))
	for _, c := range p.Categories {
		cats = append(cats, categoryRefDTO{ID: c.ID, Name: c.Name})
	}

	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Stock:       p.Stock,
		AdminID:     p.AdminID,
		Categories:  cats,
		Images:      toImageDTOs(p.Images),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductDetailsDTO(d *usecase.ProductDetails) productDTO {
	dto := toProductDTO(&d.Product)
	if d.Stats != nil {
		revenue := money(d.Stats.TotalRevenue)
		dto.TotalPurchases = &d.Stats.TotalPurchases
		dto.TotalRevenue = &revenue
		dto.FirstPurchase = d.Stats.FirstPurchase
		dto.LastPurchase = d.Stats.LastPurchase
	}

	return dto
}

type customerDTO struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PurchaseCount *int64     `json:"purchase_count,omitempty"`
	TotalSpent    *string    `json:"total_spent,omitempty"`
	LastPurchase  *time.Time `json:"last_purchase_at,omitempty"`
}

func toCustomerDTO(c *domain.Customer) customerDTO {
	return customerDTO{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCustomerDetailsDTO(d *usecase.CustomerDetails) customerDTO {
	dto := toCustomerDTO(&d.Customer)
	if d.Stats != nil {
		spent := money(d.Stats.TotalSpent)
		dto.PurchaseCount = &d.Stats.PurchaseCount
		dto.TotalSpent = &spent
		dto.LastPurchase = d.Stats.LastPurchase
	}

	return dto
}

type purchaseDTO struct {
	ID          int64     `json:"id"`
	Quantity    int64     `json:"quantity"`
	TotalPrice  string    `json:"total_price"`
	PurchasedAt time.Time `json:"purchased_at"`
	Customer    struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
	Product struct {
		ID         int64            `json:"id"`
		Name       string           `json:"name"`
		Price      string           `json:"price"`
		Stock      int64            `json:"stock"`
		AdminName  string           `json:"admin_name"`
		Categories []categoryRefDTO `json:"categories"`
	} `json:"product"`
}

func toPurchaseDTO(d *domain.PurchaseDetails) purchaseDTO {
	var dto purchaseDTO
	dto.ID = d.ID
	dto.Quantity = d.Quantity
	dto.TotalPrice = money(d.TotalPrice)
	dto.PurchasedAt = d.PurchasedAt

	dto.Customer.ID = d.Customer.ID
	dto.Customer.Name = d.Customer.Name
	dto.Customer.Email = d.Customer.Email

	dto.Product.ID = d.Product.ID
	dto.Product.Name = d.Product.Name
	dto.Product.Price = money(d.Product.Price)
	dto.Product.Stock = d.Product.Stock
	dto.Product.AdminName = d.AdminName
	dto.Product.Categories = make([]categoryRefDTO, 0, len(d.Categories))
	for _, c := range d.Categories {
		dto.Product.Categories = append(dto.Product.Categories, categoryRefDTO{ID: c.ID, Name: c.Name})
	}

	return dto
}

type auditLogDTO struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	Admin     adminDTO       `json:"admin"`
	Auditable auditableDTO   `json:"auditable"`
	Changes   domain.Changes `json:"changes_data"`
	CreatedAt time.Time      `json:"created_at"`
}

type auditableDTO struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

func toAuditLogDTOs(logs []domain.AuditLog) []auditLogDTO {
	out := make([]auditLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, auditLogDTO{
			ID:        l.ID,
			Action:    string(l.Action),
			Admin:     adminDTO{ID: l.AdminID, Name: l.AdminName},
			Auditable: auditableDTO{Type: string(l.Subject.Kind), ID: l.Subject.ID},
			Changes:   l.Changes,
			CreatedAt: l.CreatedAt,
		})
	}

	return out
}

type rankedProductDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	PurchaseCount int64  `json:"purchase_count"`
	TotalRevenue  string `json:"total_revenue"`
}

type categoryProductsDTO struct {
	Category     categoryRefDTO     `json:"category"`
	TotalRevenue *string            `json:"total_revenue,omitempty"`
	Products     []rankedProductDTO `json:"products"`
}

func toCategoryProductsDTOs(groups []domain.CategoryProducts, withRevenue bool) []categoryProductsDTO {
	out := make([]categoryProductsDTO, 0, len(groups))
	for _, g := range groups {
		dto := categoryProductsDTO{
			Category: categoryRefDTO{ID: g.Category.ID, Name: g.Category.Name},
			Products: make([]rankedProductDTO, 0, len(g.Products)),
		}
		if withRevenue {
			revenue := money(g.Revenue)
			dto.TotalRevenue = &revenue
		}
		for _, p := range g.Products {
			dto.Products = append(dto.Products, rankedProductDTO{
				ID:            p.ID,
				Name:          p.Name,
				PurchaseCount: p.PurchaseCount,
				TotalRevenue:  money(p.TotalRevenue),
			})
		}
		out = append(out, dto)
	}

	return out
}

type dailyReportDTO struct {
	Date    string `json:"date"`
	Summary struct {
		TotalPurchases  int64  `json:"total_purchases"`
		TotalRevenue    string `json:"total_revenue"`
		UniqueCustomers int64  `json:"unique_customers"`
		UniqueProducts  int64  `json:"unique_products"`
	} `json:"summary"`
	ProductsSold          map[string]int64   `json:"products_sold"`
	ProductsSummary       []productSalesDTO  `json:"products_summary"`
	CategoriesPerformance []salesDTO         `json:"categories_performance"`
	AdministratorsPerf    []salesDTO         `json:"administrators_performance"`
	TopCustomers          []customerSpendDTO `json:"top_customers"`
}

type productSalesDTO struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	UnitPrice     string `json:"unit_price"`
	QuantitySold  int64  `json:"quantity_sold"`
	TotalRevenue  string `json:"total_revenue"`
	PurchaseCount int64  `json:"purchase_count"`
}

type salesDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	QuantitySold  int64  `json:"quantity_sold"`
	TotalRevenue  string `json:"total_revenue"`
	PurchaseCount int64  `json:"purchase_count"`
}

type customerSpendDTO struct {
	CustomerID        int64  `json:"customer_id"`
	CustomerName      string `json:"customer_name"`
	CustomerEmail     string `json:"customer_email"`
	QuantityPurchased int64  `json:"quantity_purchased"`
	TotalSpent        string `json:"total_spent"`
	PurchaseCount     int64  `json:"purchase_count"`
}

func toDailyReportDTO(r *domain.DailyReport) dailyReportDTO {
	var dto dailyReportDTO
	dto.Date = r.Date.Format(time.DateOnly)
	dto.Summary.TotalPurchases = r.Summary.TotalPurchases
	dto.Summary.TotalRevenue = money(r.Summary.TotalRevenue)
	dto.Summary.UniqueCustomers = r.Summary.UniqueCustomers
	dto.Summary.UniqueProducts = r.Summary.UniqueProducts
	dto.ProductsSold = r.ProductsSold

	dto.ProductsSummary = make([]productSalesDTO, 0, len(r.ProductsSummary))
	for _, p := range r.ProductsSummary {
		dto.ProductsSummary = append(dto.ProductsSummary, productSalesDTO{
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			UnitPrice:     money(p.UnitPrice),
			QuantitySold:  p.QuantitySold,
			TotalRevenue:  money(p.TotalRevenue),
			PurchaseCount: p.PurchaseCount,
		})
	}

	dto.CategoriesPerformance = make([]salesDTO, 0, len(r.CategoriesPerformance))
	for _, c := range r.CategoriesPerformance {
		dto.CategoriesPerformance = append(dto.CategoriesPerformance, salesDTO{
			ID: c.CategoryID, Name: c.CategoryName, QuantitySold: c.QuantitySold,
			TotalRevenue: money(c.TotalRevenue), PurchaseCount: c.PurchaseCount,
		})
	}

	dto.AdministratorsPerf = make([]salesDTO, 0, len(r.AdministratorsPerformance))
	for _, a := range r.AdministratorsPerformance {
		dto.AdministratorsPerf = append(dto.AdministratorsPerf, salesDTO{
			ID: a.AdminID, Name: a.AdminName, QuantitySold: a.QuantitySold,
			TotalRevenue: money(a.TotalRevenue), PurchaseCount: a.PurchaseCount,
		})
	}

	dto.TopCustomers = make([]customerSpendDTO, 0, len(r.TopCustomers))
	for _, c := range r.TopCustomers {
		dto.TopCustomers = append(dto.TopCustomers, customerSpendDTO{
			CustomerID:        c.CustomerID,
			CustomerName:      c.CustomerName,
			CustomerEmail:     c.CustomerEmail,
			QuantityPurchased: c.QuantityPurchased,
			TotalSpent:        money(c.TotalSpent),
			PurchaseCount:     c.PurchaseCount,
		})
	}

	return dto
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
