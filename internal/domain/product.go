package domain

import (
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/shopspring/decimal"
)

const priceScale = 2

// Product описывает товар. Остаток меняется только при оформлении покупки.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	AdminID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Categories []Category
	Images     []ProductImage
}

func NewProduct(name, description string, price decimal.Decimal, stock int64, adminID int64) *Product {
	return &Product{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       price,
		Stock:       stock,
		AdminID:     adminID,
	}
}

func (p *Product) Validate() error {
	v := &e.ValidationError{}
	checkLength(v, "name", p.Name, 2, 200)
	checkLength(v, "description", p.Description, 10, 1000)

	if !p.Price.IsPositive() {
		v.Add("price", "must be greater than 0")
	} else if !p.Price.Equal(p.Price.Round(priceScale)) {
		v.Add("price", "must have at most 2 decimal places")
	}

	if p.Stock < 0 {
		v.Add("stock", "must be greater than or equal to 0")
	}

	return v.OrNil()
}

// Snapshot возвращает полный набор атрибутов для записи аудита.
func (p *Product) Snapshot() Changes {
	return Changes{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(priceScale),
		"stock":       p.Stock,
		"admin_id":    p.AdminID,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

// Diff возвращает изменённые атрибуты в формате {"field": [old, new]}.
func (p *Product) Diff(updated *Product) Changes {
	changes := Changes{}
	changes.track("name", p.Name, updated.Name)
	changes.track("description", p.Description, updated.Description)
	changes.track("price", p.Price.StringFixed(priceScale), updated.Price.StringFixed(priceScale))
	changes.track("stock", p.Stock, updated.Stock)

	return changes
}

// CategoryIDs возвращает идентификаторы привязанных категорий.
func (p *Product) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}

	return ids
}
