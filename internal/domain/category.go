package domain

import (
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/e"
)

// Category описывает категорию товара. Имя уникально без учёта регистра.
type Category struct {
	ID          int64
	Name        string
	Description string
	AdminID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCategory(name, description string, adminID int64) *Category {
	return &Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		AdminID:     adminID,
	}
}

func (c *Category) Validate() error {
	v := &e.ValidationError{}
	checkLength(v, "name", c.Name, 2, 100)
	checkLength(v, "description", c.Description, 10, 500)

	return v.OrNil()
}

// Snapshot возвращает полный набор атрибутов для записи аудита.
func (c *Category) Snapshot() Changes {
	return Changes{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"admin_id":    c.AdminID,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}

// Diff возвращает изменённые атрибуты в формате {"field": [old, new]}.
func (c *Category) Diff(updated *Category) Changes {
	changes := Changes{}
	changes.track("name", c.Name, updated.Name)
	changes.track("description", c.Description, updated.Description)

	return changes
}
