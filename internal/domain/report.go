package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Granularity — шаг группировки покупок по времени.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
	GranularityYear Granularity = "year"
)

// DailyReport — сводка покупок за один календарный день.
type DailyReport struct {
	Date           time.Time
	TotalPurchases int64
	TotalRevenue   decimal.Decimal
	// ProductsSold — суммарное количество по названию товара.
	ProductsSold          map[string]int64
	CategoriesPerformance []CategoryPerformance

	Summary                   ReportSummary
	ProductsSummary           []ProductSales
	AdministratorsPerformance []AdminPerformance
	TopCustomers              []CustomerSpending
}

func (r *DailyReport) Empty() bool {
	return r.TotalPurchases == 0
}

type ReportSummary struct {
	TotalPurchases  int64
	TotalRevenue    decimal.Decimal
	UniqueCustomers int64
	UniqueProducts  int64
}

type ProductSales struct {
	ProductID     int64
	ProductName   string
	UnitPrice     decimal.Decimal
	QuantitySold  int64
	TotalRevenue  decimal.Decimal
	PurchaseCount int64
}

type CategoryPerformance struct {
	CategoryID    int64
	CategoryName  string
	QuantitySold  int64
	TotalRevenue  decimal.Decimal
	PurchaseCount int64
}

type AdminPerformance struct {
	AdminID       int64
	AdminName     string
	QuantitySold  int64
	TotalRevenue  decimal.Decimal
	PurchaseCount int64
}

type CustomerSpending struct {
	CustomerID        int64
	CustomerName      string
	CustomerEmail     string
	QuantityPurchased int64
	TotalSpent        decimal.Decimal
	PurchaseCount     int64
}

// CategoryProducts — товары одной категории с метрикой ранжирования.
type CategoryProducts struct {
	Category CategoryRef
	Revenue  decimal.Decimal
	Products []RankedProduct
}

type RankedProduct struct {
	ID            int64
	Name          string
	PurchaseCount int64
	TotalRevenue  decimal.Decimal
}

// BucketCount — число покупок за период, начавшийся в Start.
// Start — местное время без часового пояса, как его вернул date_trunc.
type BucketCount struct {
	Start time.Time
	Count int64
}

// CategoryProductTotal — итоги товара в категории вместе с выручкой всей категории.
type CategoryProductTotal struct {
	Category        CategoryRef
	CategoryRevenue decimal.Decimal
	Product         RankedProduct
}
