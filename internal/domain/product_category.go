package domain

import "time"

// ProductCategory — связь товара с категорией. Пара (product_id, category_id) уникальна.
type ProductCategory struct {
	ID         int64
	ProductID  int64
	CategoryID int64
	CreatedAt  time.Time
}

// AssociationChanges — содержимое аудита для привязки и отвязки категории.
func AssociationChanges(category *Category) Changes {
	return Changes{
		"category_id":   category.ID,
		"category_name": category.Name,
	}
}
