package domain

import (
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// Purchase — покупка товара покупателем. После создания не изменяется.
type Purchase struct {
	ID          int64
	CustomerID  int64
	ProductID   int64
	Quantity    int64
	TotalPrice  decimal.Decimal
	PurchasedAt time.Time
	CreatedAt   time.Time
}

// NewPurchase фиксирует итоговую цену как quantity × текущая цена товара.
func NewPurchase(customerID int64, product *Product, quantity int64, purchasedAt time.Time) *Purchase {
	if purchasedAt.IsZero() {
		purchasedAt = time.Now()
	}

	return &Purchase{
		CustomerID:  customerID,
		ProductID:   product.ID,
		Quantity:    quantity,
		TotalPrice:  product.Price.Mul(decimal.NewFromInt(quantity)),
		PurchasedAt: purchasedAt,
	}
}

func (p *Purchase) Validate() error {
	v := &e.ValidationError{}
	if p.Quantity <= 0 {
		v.Add("quantity", "must be greater than 0")
	}
	if !p.TotalPrice.IsPositive() {
		v.Add("total_price", "must be greater than 0")
	}

	return v.OrNil()
}

// UnitPrice восстанавливает цену единицы на момент покупки.
func (p *Purchase) UnitPrice() decimal.Decimal {
	if p.Quantity == 0 {
		return decimal.Zero
	}

	return p.TotalPrice.Div(decimal.NewFromInt(p.Quantity))
}

// PurchaseFilter — фильтры выборки покупок. nil означает отсутствие фильтра.
type PurchaseFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *int64
	CustomerID *int64
	AdminID    *int64 // владелец товара
}

// PurchaseDetails — покупка вместе со связанными сущностями для выдачи наружу.
type PurchaseDetails struct {
	Purchase
	Customer   Customer
	Product    Product
	AdminName  string
	Categories []Category
}

// CategoryRef — краткая ссылка на категорию.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PurchaseFact — строка покупки со всем необходимым для построения отчётов.
type PurchaseFact struct {
	PurchaseID    int64
	PurchasedAt   time.Time
	Quantity      int64
	TotalPrice    decimal.Decimal
	ProductID     int64
	ProductName   string
	ProductPrice  decimal.Decimal
	AdminID       int64
	AdminName     string
	CustomerID    int64
	CustomerName  string
	CustomerEmail string
	Categories    []CategoryRef
}

// Matches проверяет покупку на соответствие фильтру.
func (f *PurchaseFilter) Matches(fact PurchaseFact) bool {
	if f == nil {
		return true
	}
	if f.StartDate != nil && fact.PurchasedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && fact.PurchasedAt.After(*f.EndDate) {
		return false
	}
	if f.CustomerID != nil && fact.CustomerID != *f.CustomerID {
		return false
	}
	if f.AdminID != nil && fact.AdminID != *f.AdminID {
		return false
	}
	if f.CategoryID != nil {
		for _, c := range fact.Categories {
			if c.ID == *f.CategoryID {
				return true
			}
		}
		return false
	}

	return true
}
