package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminModel представляет запись таблицы admins в PostgreSQL.
type AdminModel struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	AdminID     int64     `db:"admin_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Stock       int64           `db:"stock"`
	AdminID     int64           `db:"admin_id"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type ProductImageModel struct {
	ID        int64     `db:"id"`
	ProductID int64     `db:"product_id"`
	ImageURL  string    `db:"image_url"`
	Caption   string    `db:"caption"`
	ObjectKey *string   `db:"object_key"`
	CreatedAt time.Time `db:"created_at"`
}

type ProductCategoryModel struct {
	ID         int64     `db:"id"`
	ProductID  int64     `db:"product_id"`
	CategoryID int64     `db:"category_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type CustomerModel struct {
	ID        int64     `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Phone     *string   `db:"phone"`
	Address   *string   `db:"address"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type PurchaseModel struct {
	ID          int64           `db:"id"`
	CustomerID  int64           `db:"customer_id"`
	ProductID   int64           `db:"product_id"`
	Quantity    int64           `db:"quantity"`
	TotalPrice  decimal.Decimal `db:"total_price"`
	PurchasedAt time.Time       `db:"purchased_at"`
	CreatedAt   time.Time       `db:"created_at"`
}

// AuditLogModel — запись audit_logs вместе с именем администратора.
type AuditLogModel struct {
	ID            int64          `db:"id"`
	AdminID       int64          `db:"admin_id"`
	AdminName     *string        `db:"admin_name"`
	Action        string         `db:"action"`
	AuditableType string         `db:"auditable_type"`
	AuditableID   int64          `db:"auditable_id"`
	Changes       map[string]any `db:"changes"`
	CreatedAt     time.Time      `db:"created_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          string     `db:"id"`
	AggregateID int64      `db:"aggregate_id"`
	EventType   string     `db:"event_type"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	RetryCount  int        `db:"retry_count"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
