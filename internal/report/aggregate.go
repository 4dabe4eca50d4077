package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultMostPurchasedLimit = 10
	TopRevenueCategories      = 3
	TopRevenueProducts        = 3
	dailyTopProducts          = 20
	dailyTopCustomers         = 10
)

// BuildDailyReport собирает дневную сводку по покупкам одного дня.
func BuildDailyReport(day time.Time, facts []domain.PurchaseFact) *domain.DailyReport {
	r := &domain.DailyReport{
		Date:         day,
		TotalRevenue: decimal.Zero,
		ProductsSold: make(map[string]int64),
	}

	var (
		products   = map[int64]*domain.ProductSales{}
		categories = map[int64]*domain.CategoryPerformance{}
		admins     = map[int64]*domain.AdminPerformance{}
		customers  = map[int64]*domain.CustomerSpending{}
	)

	for _, f := range facts {
		r.TotalPurchases++
		r.TotalRevenue = r.TotalRevenue.Add(f.TotalPrice)
		r.ProductsSold[f.ProductName] += f.Quantity

		p, ok := products[f.ProductID]
		if !ok {
			p = &domain.ProductSales{ProductID: f.ProductID, ProductName: f.ProductName, UnitPrice: f.ProductPrice}
			products[f.ProductID] = p
		}
		p.QuantitySold += f.Quantity
		p.TotalRevenue = p.TotalRevenue.Add(f.TotalPrice)
		p.PurchaseCount++

		for _, c := range f.Categories {
			cp, ok := categories[c.ID]
			if !ok {
				cp = &domain.CategoryPerformance{CategoryID: c.ID, CategoryName: c.Name}
				categories[c.ID] = cp
			}
			cp.QuantitySold += f.Quantity
			cp.TotalRevenue = cp.TotalRevenue.Add(f.TotalPrice)
			cp.PurchaseCount++
		}

		a, ok := admins[f.AdminID]
		if !ok {
			a = &domain.AdminPerformance{AdminID: f.AdminID, AdminName: f.AdminName}
			admins[f.AdminID] = a
		}
		a.QuantitySold += f.Quantity
		a.TotalRevenue = a.TotalRevenue.Add(f.TotalPrice)
		a.PurchaseCount++

		cs, ok := customers[f.CustomerID]
		if !ok {
			cs = &domain.CustomerSpending{CustomerID: f.CustomerID, CustomerName: f.CustomerName, CustomerEmail: f.CustomerEmail}
			customers[f.CustomerID] = cs
		}
		cs.QuantityPurchased += f.Quantity
		cs.TotalSpent = cs.TotalSpent.Add(f.TotalPrice)
		cs.PurchaseCount++
	}

	r.Summary = domain.ReportSummary{
		TotalPurchases:  r.TotalPurchases,
		TotalRevenue:    r.TotalRevenue,
		UniqueCustomers: int64(len(customers)),
		UniqueProducts:  int64(len(products)),
	}

	r.ProductsSummary = topN(values(products), dailyTopProducts, func(a, b *domain.ProductSales) int {
		return byRevenueThenID(a.TotalRevenue, b.TotalRevenue, a.ProductID, b.ProductID)
	})
	r.CategoriesPerformance = topN(values(categories), 0, func(a, b *domain.CategoryPerformance) int {
		return byRevenueThenID(a.TotalRevenue, b.TotalRevenue, a.CategoryID, b.CategoryID)
	})
	r.AdministratorsPerformance = topN(values(admins), 0, func(a, b *domain.AdminPerformance) int {
		return byRevenueThenID(a.TotalRevenue, b.TotalRevenue, a.AdminID, b.AdminID)
	})
	r.TopCustomers = topN(values(customers), dailyTopCustomers, func(a, b *domain.CustomerSpending) int {
		return byRevenueThenID(a.TotalSpent, b.TotalSpent, a.CustomerID, b.CustomerID)
	})

	return r
}

// MostPurchasedByCategory раскладывает итоги по категориям и оставляет в каждой до limit товаров
// с наибольшим числом покупок. Категории упорядочены по имени, затем по id.
func MostPurchasedByCategory(totals []domain.CategoryProductTotal, limit int) []domain.CategoryProducts {
	if limit <= 0 {
		limit = DefaultMostPurchasedLimit
	}

	groups := groupByCategory(totals)

	result := make([]domain.CategoryProducts, 0, len(groups))
	for _, g := range groups {
		products := topN(g.products, limit, func(a, b *domain.RankedProduct) int {
			if c := cmp.Compare(b.PurchaseCount, a.PurchaseCount); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		result = append(result, domain.CategoryProducts{Category: g.ref, Revenue: g.revenue, Products: products})
	}

	slices.SortFunc(result, func(a, b domain.CategoryProducts) int {
		if c := cmp.Compare(a.Category.Name, b.Category.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Category.ID, b.Category.ID)
	})

	return result
}

// TopRevenueByCategory оставляет TopRevenueCategories категорий с наибольшей выручкой
// и по TopRevenueProducts самых доходных товаров в каждой.
func TopRevenueByCategory(totals []domain.CategoryProductTotal) []domain.CategoryProducts {
	groups := groupByCategory(totals)

	top := topN(values(groups), TopRevenueCategories, func(a, b *categoryGroup) int {
		return byRevenueThenID(a.revenue, b.revenue, a.ref.ID, b.ref.ID)
	})

	result := make([]domain.CategoryProducts, 0, len(top))
	for _, g := range top {
		products := topN(g.products, TopRevenueProducts, func(a, b *domain.RankedProduct) int {
			return byRevenueThenID(a.TotalRevenue, b.TotalRevenue, a.ID, b.ID)
		})
		result = append(result, domain.CategoryProducts{Category: g.ref, Revenue: g.revenue, Products: products})
	}

	return result
}

type categoryGroup struct {
	ref      domain.CategoryRef
	revenue  decimal.Decimal
	products []*domain.RankedProduct
}

func groupByCategory(totals []domain.CategoryProductTotal) map[int64]*categoryGroup {
	groups := make(map[int64]*categoryGroup)
	for _, t := range totals {
		g, ok := groups[t.Category.ID]
		if !ok {
			g = &categoryGroup{ref: t.Category, revenue: t.CategoryRevenue}
			groups[t.Category.ID] = g
		}

		p := t.Product
		g.products = append(g.products, &p)
	}

	return groups
}

// byRevenueThenID упорядочивает по убыванию суммы, при равенстве по возрастанию id.
func byRevenueThenID(a, b decimal.Decimal, aID, bID int64) int {
	if c := b.Cmp(a); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}

func values[T any](m map[int64]*T) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// topN сортирует и обрезает до n элементов. n <= 0 означает без ограничения.
func topN[T any](items []*T, n int, less func(a, b *T) int) []T {
	slices.SortFunc(items, less)
	if n > 0 && len(items) > n {
		items = items[:n]
	}

	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, *it)
	}
	return out
}
