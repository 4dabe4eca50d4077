package usecase

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// memStore — хранилище в памяти. Изменения внутри fakeTx.Do откатываются по журналу отмены.
type memStore struct {
	mu sync.Mutex

	admins     map[int64]domain.Admin
	products   map[int64]domain.Product
	categories map[int64]domain.Category
	links      map[int64]domain.ProductCategory
	images     map[int64]domain.ProductImage
	customers  map[int64]domain.Customer
	purchases  map[int64]domain.Purchase
	audits     []domain.AuditLog
	outbox     []OutboxEvent
	nextID     int64
	rowLocks   map[int64]*sync.Mutex

	failAudit     bool
	failDecrement bool
}

func newMemStore() *memStore {
	return &memStore{
		admins:     map[int64]domain.Admin{},
		products:   map[int64]domain.Product{},
		categories: map[int64]domain.Category{},
		links:      map[int64]domain.ProductCategory{},
		images:     map[int64]domain.ProductImage{},
		customers:  map[int64]domain.Customer{},
		purchases:  map[int64]domain.Purchase{},
		rowLocks:   map[int64]*sync.Mutex{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

type txKey struct{}

// txState — журнал отмены и удерживаемые блокировки строк одной транзакции.
type txState struct {
	undo    []func()
	unlocks []func()
	locked  map[int64]bool
}

func txFrom(ctx context.Context) (*txState, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	return st, ok
}

// onRollback запоминает отмену изменения. Вызывается под s.mu.
func (s *memStore) onRollback(ctx context.Context, undo func()) {
	if st, ok := txFrom(ctx); ok {
		st.undo = append(st.undo, undo)
	}
}

// lockRow держит блокировку строки товара до конца транзакции, как SELECT ... FOR UPDATE.
func (s *memStore) lockRow(ctx context.Context, id int64) {
	st, ok := txFrom(ctx)
	if !ok || st.locked[id] {
		return
	}

	s.mu.Lock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	st.locked[id] = true
	st.unlocks = append(st.unlocks, l.Unlock)
}

// keep запоминает прежние значения ключей m для отката. Вызывается под s.mu.
func keep[V any](ctx context.Context, s *memStore, m map[int64]V, ids ...int64) {
	for _, id := range ids {
		old, existed := m[id]
		s.onRollback(ctx, func() {
			if existed {
				m[id] = old
			} else {
				delete(m, id)
			}
		})
	}
}

// deleteWhere удаляет подходящие записи с возможностью отката. Вызывается под s.mu.
func deleteWhere[V any](ctx context.Context, s *memStore, m map[int64]V, match func(V) bool) {
	for id, v := range m {
		if match(v) {
			keep(ctx, s, m, id)
			delete(m, id)
		}
	}
}

// fakeTx не сериализует транзакции: параллельные вызовы пересекаются только
// на блокировках строк. При ошибке изменения откатываются до снятия блокировок.
type fakeTx struct {
	store *memStore
}

func (f *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	st := &txState{locked: map[int64]bool{}}
	defer func() {
		for _, unlock := range st.unlocks {
			unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		f.store.mu.Lock()
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
		f.store.mu.Unlock()
		return err
	}

	return nil
}

// ADMINS

type fakeAdminRepo struct{ *memStore }

func (r fakeAdminRepo) Create(ctx context.Context, a *domain.Admin) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.id()
	keep(ctx, r.memStore, r.admins, a.ID)
	r.admins[a.ID] = *a
	return a, nil
}

func (r fakeAdminRepo) GetByID(_ context.Context, id int64) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.admins[id]
	if !ok {
		return nil, e.NewNotFoundError("admin", id)
	}
	return &a, nil
}

func (r fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, e.NewNotFoundError("admin", email)
}

func (r fakeAdminRepo) List(_ context.Context) ([]domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Collect(maps.Values(r.admins))
	slices.SortFunc(out, func(a, b domain.Admin) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r fakeAdminRepo) CountOwned(_ context.Context, id int64) (*AdminCounters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &AdminCounters{}
	for _, p := range r.products {
		if p.AdminID == id {
			c.Products++
		}
	}
	for _, cat := range r.categories {
		if cat.AdminID == id {
			c.Categories++
		}
	}
	return c, nil
}

// PRODUCTS

type fakeProductRepo struct{ *memStore }

func (r fakeProductRepo) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.id()
	keep(ctx, r.memStore, r.products, p.ID)
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	r.products[p.ID] = *p
	return p, nil
}

func (r fakeProductRepo) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.products, p.ID)
	cur := r.products[p.ID]
	cur.Name, cur.Description, cur.Price = p.Name, p.Description, p.Price
	r.products[p.ID] = cur
	return &cur, nil
}

func (r fakeProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.products, id)
	delete(r.products, id)
	return nil
}

func (r fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.NewNotFoundError("product", id)
	}

	p.Categories, p.Images = nil, nil
	for _, l := range r.links {
		if l.ProductID == id {
			p.Categories = append(p.Categories, r.categories[l.CategoryID])
		}
	}
	for _, img := range r.images {
		if img.ProductID == id {
			p.Images = append(p.Images, img)
		}
	}
	return &p, nil
}

func (r fakeProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	r.lockRow(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, e.NewNotFoundError("product", id)
	}
	return &p, nil
}

func (r fakeProductRepo) DecrementStock(ctx context.Context, id int64, qty int64) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.products[id]
	if r.failDecrement || p.Stock < qty {
		return p.Stock, false, nil
	}
	keep(ctx, r.memStore, r.products, id)
	p.Stock -= qty
	r.products[id] = p
	return p.Stock, true, nil
}

func (r fakeProductRepo) List(_ context.Context, page Page) ([]domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Collect(maps.Values(r.products))
	return out, int64(len(out)), nil
}

func (r fakeProductRepo) Stats(_ context.Context, id int64) (*ProductStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &ProductStats{}
	for _, p := range r.purchases {
		if p.ProductID == id {
			s.TotalPurchases++
			s.TotalRevenue = s.TotalRevenue.Add(p.TotalPrice)
		}
	}
	return s, nil
}

// CATEGORIES

type fakeCategoryRepo struct{ *memStore }

func (r fakeCategoryRepo) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.id()
	keep(ctx, r.memStore, r.categories, c.ID)
	r.categories[c.ID] = *c
	return c, nil
}

func (r fakeCategoryRepo) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.categories, c.ID)
	r.categories[c.ID] = *c
	return c, nil
}

func (r fakeCategoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.categories, id)
	delete(r.categories, id)
	return nil
}

func (r fakeCategoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, e.NewNotFoundError("category", id)
	}
	return &c, nil
}

func (r fakeCategoryRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Category
	for _, id := range ids {
		if c, ok := r.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r fakeCategoryRepo) ExistsByName(_ context.Context, name string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeCategoryRepo) List(_ context.Context, _ Page) ([]domain.Category, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Collect(maps.Values(r.categories))
	return out, int64(len(out)), nil
}

func (r fakeCategoryRepo) Stats(_ context.Context, id int64) (*CategoryStats, error) {
	return &CategoryStats{}, nil
}

// PRODUCT CATEGORIES

type fakeLinkRepo struct{ *memStore }

func (r fakeLinkRepo) Create(ctx context.Context, productID, categoryID int64) (*domain.ProductCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.links {
		if l.ProductID == productID && l.CategoryID == categoryID {
			return nil, e.NewValidationError("product_id", "has already been taken")
		}
	}
	l := domain.ProductCategory{ID: r.id(), ProductID: productID, CategoryID: categoryID}
	keep(ctx, r.memStore, r.links, l.ID)
	r.links[l.ID] = l
	return &l, nil
}

func (r fakeLinkRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.links, id)
	delete(r.links, id)
	return nil
}

func (r fakeLinkRepo) ListByProduct(_ context.Context, productID int64) ([]domain.ProductCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.ProductCategory
	for _, l := range r.links {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b domain.ProductCategory) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r fakeLinkRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleteWhere(ctx, r.memStore, r.links, func(l domain.ProductCategory) bool { return l.ProductID == productID })
	return nil
}

func (r fakeLinkRepo) DeleteByCategory(ctx context.Context, categoryID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleteWhere(ctx, r.memStore, r.links, func(l domain.ProductCategory) bool { return l.CategoryID == categoryID })
	return nil
}

// IMAGES

type fakeImageRepo struct{ *memStore }

func (r fakeImageRepo) CreateMany(ctx context.Context, images []domain.ProductImage) ([]domain.ProductImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ProductImage, 0, len(images))
	for _, img := range images {
		img.ID = r.id()
		keep(ctx, r.memStore, r.images, img.ID)
		r.images[img.ID] = img
		out = append(out, img)
	}
	return out, nil
}

func (r fakeImageRepo) ListByProduct(_ context.Context, productID int64) ([]domain.ProductImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.ProductImage
	for _, img := range r.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (r fakeImageRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleteWhere(ctx, r.memStore, r.images, func(img domain.ProductImage) bool { return img.ProductID == productID })
	return nil
}

// CUSTOMERS

type fakeCustomerRepo struct{ *memStore }

func (r fakeCustomerRepo) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.id()
	keep(ctx, r.memStore, r.customers, c.ID)
	r.customers[c.ID] = *c
	return c, nil
}

func (r fakeCustomerRepo) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.customers, c.ID)
	r.customers[c.ID] = *c
	return c, nil
}

func (r fakeCustomerRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep(ctx, r.memStore, r.customers, id)
	delete(r.customers, id)
	deleteWhere(ctx, r.memStore, r.purchases, func(p domain.Purchase) bool { return p.CustomerID == id })
	return nil
}

func (r fakeCustomerRepo) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, e.NewNotFoundError("customer", id)
	}
	return &c, nil
}

func (r fakeCustomerRepo) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.ID != excludeID && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeCustomerRepo) List(_ context.Context, _ Page) ([]domain.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Collect(maps.Values(r.customers))
	return out, int64(len(out)), nil
}

func (r fakeCustomerRepo) Stats(_ context.Context, id int64) (*CustomerStats, error) {
	return &CustomerStats{}, nil
}

// PURCHASES

type fakePurchaseRepo struct{ *memStore }

func (r fakePurchaseRepo) Create(ctx context.Context, p *domain.Purchase) (*domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.id()
	keep(ctx, r.memStore, r.purchases, p.ID)
	p.CreatedAt = time.Now()
	r.purchases[p.ID] = *p
	return p, nil
}

func (r fakePurchaseRepo) GetByID(_ context.Context, id int64) (*domain.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, e.NewNotFoundError("purchase", id)
	}
	return &p, nil
}

func (r fakePurchaseRepo) GetDetails(ctx context.Context, id int64) (*domain.PurchaseDetails, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.PurchaseDetails{Purchase: *p, Customer: r.customers[p.CustomerID], Product: r.products[p.ProductID]}, nil
}

func (r fakePurchaseRepo) IsFirstForProduct(_ context.Context, p *domain.Purchase) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.purchases {
		if other.ProductID != p.ProductID || other.ID == p.ID {
			continue
		}
		if other.PurchasedAt.Before(p.PurchasedAt) || (other.PurchasedAt.Equal(p.PurchasedAt) && other.ID < p.ID) {
			return false, nil
		}
	}
	return true, nil
}

func (r fakePurchaseRepo) ListDetails(ctx context.Context, f *domain.PurchaseFilter, page Page) ([]domain.PurchaseDetails, int64, error) {
	facts, _ := r.Facts(ctx, f)

	out := make([]domain.PurchaseDetails, 0, len(facts))
	for _, fact := range facts {
		d, _ := r.GetDetails(ctx, fact.PurchaseID)
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (r fakePurchaseRepo) Facts(_ context.Context, f *domain.PurchaseFilter) ([]domain.PurchaseFact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.PurchaseFact
	for _, p := range r.purchases {
		product := r.products[p.ProductID]
		fact := domain.PurchaseFact{
			PurchaseID:   p.ID,
			PurchasedAt:  p.PurchasedAt,
			Quantity:     p.Quantity,
			TotalPrice:   p.TotalPrice,
			ProductID:    p.ProductID,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			AdminID:      product.AdminID,
			CustomerID:   p.CustomerID,
		}
		for _, l := range r.links {
			if l.ProductID == p.ProductID {
				c := r.categories[l.CategoryID]
				fact.Categories = append(fact.Categories, domain.CategoryRef{ID: c.ID, Name: c.Name})
			}
		}
		if f.Matches(fact) {
			out = append(out, fact)
		}
	}
	slices.SortFunc(out, func(a, b domain.PurchaseFact) int { return int(a.PurchaseID - b.PurchaseID) })
	return out, nil
}

func (r fakePurchaseRepo) CountByPeriod(
	ctx context.Context,
	f *domain.PurchaseFilter,
	g domain.Granularity,
	loc *time.Location,
) ([]domain.BucketCount, error) {
	facts, _ := r.Facts(ctx, f)

	counts := map[time.Time]int64{}
	for _, fact := range facts {
		t := fact.PurchasedAt.In(loc)
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		switch g {
		case domain.GranularityHour:
			start = start.Add(time.Duration(t.Hour()) * time.Hour)
		case domain.GranularityYear:
			start = time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		}
		counts[start]++
	}

	out := make([]domain.BucketCount, 0, len(counts))
	for start, n := range counts {
		out = append(out, domain.BucketCount{Start: start, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.BucketCount) int { return a.Start.Compare(b.Start) })
	return out, nil
}

// categoryTotals сворачивает покупки в итоги по (категория, товар) без ранжирования и обрезки.
func (r fakePurchaseRepo) categoryTotals(ctx context.Context) []domain.CategoryProductTotal {
	facts, _ := r.Facts(ctx, nil)

	type key struct{ category, product int64 }
	totals := map[key]*domain.CategoryProductTotal{}
	revenue := map[int64]decimal.Decimal{}
	for _, f := range facts {
		for _, c := range f.Categories {
			revenue[c.ID] = revenue[c.ID].Add(f.TotalPrice)

			t, ok := totals[key{c.ID, f.ProductID}]
			if !ok {
				t = &domain.CategoryProductTotal{Category: c, Product: domain.RankedProduct{ID: f.ProductID, Name: f.ProductName}}
				totals[key{c.ID, f.ProductID}] = t
			}
			t.Product.PurchaseCount++
			t.Product.TotalRevenue = t.Product.TotalRevenue.Add(f.TotalPrice)
		}
	}

	out := make([]domain.CategoryProductTotal, 0, len(totals))
	for _, t := range totals {
		t.CategoryRevenue = revenue[t.Category.ID]
		out = append(out, *t)
	}
	return out
}

func (r fakePurchaseRepo) MostPurchasedByCategory(ctx context.Context, _ int) ([]domain.CategoryProductTotal, error) {
	return r.categoryTotals(ctx), nil
}

func (r fakePurchaseRepo) TopRevenueByCategory(ctx context.Context, _, _ int) ([]domain.CategoryProductTotal, error) {
	return r.categoryTotals(ctx), nil
}

func (r fakePurchaseRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleteWhere(ctx, r.memStore, r.purchases, func(p domain.Purchase) bool { return p.ProductID == productID })
	return nil
}

// AUDIT

type fakeAuditRepo struct{ *memStore }

func (r fakeAuditRepo) Create(ctx context.Context, l *domain.AuditLog) (*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAudit {
		return nil, errors.New("audit_logs: connection reset")
	}
	l.ID = r.id()
	l.CreatedAt = time.Now()
	r.audits = append(r.audits, *l)

	id := l.ID
	r.onRollback(ctx, func() {
		r.audits = slices.DeleteFunc(r.audits, func(a domain.AuditLog) bool { return a.ID == id })
	})
	return l, nil
}

func (r fakeAuditRepo) List(_ context.Context, _ Page) ([]domain.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.audits), int64(len(r.audits)), nil
}

func (r fakeAuditRepo) ListSince(_ context.Context, since time.Time, limit int) ([]domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.AuditLog
	for _, l := range r.audits {
		if !l.CreatedAt.Before(since) {
			out = append(out, l)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeAuditRepo) ListBySubject(_ context.Context, s domain.Subject) ([]domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.AuditLog
	for _, l := range r.audits {
		if l.Subject == s {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r fakeAuditRepo) DeleteBySubject(ctx context.Context, s domain.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []domain.AuditLog
	r.audits = slices.DeleteFunc(r.audits, func(l domain.AuditLog) bool {
		if l.Subject == s {
			removed = append(removed, l)
			return true
		}
		return false
	})

	r.onRollback(ctx, func() {
		r.audits = append(r.audits, removed...)
		slices.SortFunc(r.audits, func(a, b domain.AuditLog) int { return cmp.Compare(a.ID, b.ID) })
	})
	return nil
}

// OUTBOX

type fakeOutboxRepo struct{ *memStore }

func (r fakeOutboxRepo) Create(ctx context.Context, ev *OutboxEvent) (*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outbox = append(r.outbox, *ev)

	id := ev.ID
	r.onRollback(ctx, func() {
		r.outbox = slices.DeleteFunc(r.outbox, func(o OutboxEvent) bool { return o.ID == id })
	})
	return ev, nil
}

func (r fakeOutboxRepo) GetAndMarkAsProcessing(context.Context, []string, int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (r fakeOutboxRepo) MarkAsProcessed(context.Context, string) error { return nil }

func (r fakeOutboxRepo) MarkAsFailed(context.Context, string) error { return nil }

func (r fakeOutboxRepo) Release(context.Context, string) error { return nil }

func (r fakeOutboxRepo) ofType(eventType string) []OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []OutboxEvent
	for _, ev := range r.outbox {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// INFRASTRUCTURE

type fakeCache struct {
	mu            sync.Mutex
	data          map[string][]byte
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *fakeCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidations++
	maps.DeleteFunc(c.data, func(k string, _ []byte) bool { return strings.HasPrefix(k, prefix) })
	return nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []domain.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job *domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, *job)
	return nil
}

func (q *fakeQueue) Lengths(context.Context) (map[domain.Queue]int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := map[domain.Queue]int64{}
	for _, j := range q.jobs {
		out[j.Queue]++
	}
	return out, nil
}

func (q *fakeQueue) ofType(t domain.JobType) []domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []domain.Job
	for _, j := range q.jobs {
		if j.Type == t {
			out = append(out, j)
		}
	}
	return out
}

type fakeMailer struct {
	mu      sync.Mutex
	firsts  []FirstPurchaseEmail
	reports []DailyReportEmail
	failFor string
}

func (m *fakeMailer) SendFirstPurchase(_ context.Context, msg *FirstPurchaseEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Admin.Email == m.failFor {
		return errors.New("smtp: 451 temporary failure")
	}
	m.firsts = append(m.firsts, *msg)
	return nil
}

func (m *fakeMailer) SendDailyReport(_ context.Context, msg *DailyReportEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Admin.Email == m.failFor {
		return errors.New("smtp: 451 temporary failure")
	}
	m.reports = append(m.reports, *msg)
	return nil
}

type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	cleaned  []string
}

func (f *fakeImages) UploadImages(_ context.Context, req *UploadImagesReq) (*UploadImagesRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys, urls []string
	for _, img := range req.Images {
		key := req.Prefix + "/" + img.Name
		keys = append(keys, key)
		urls = append(urls, "http://minio.local/bucket/"+key)
	}
	f.uploaded = append(f.uploaded, keys...)
	return NewUploadImagesRes(keys, urls), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleaned = append(f.cleaned, keys...)
}

// FIXTURES

type env struct {
	store    *memStore
	tx       *fakeTx
	cache    *fakeCache
	queue    *fakeQueue
	mailer   *fakeMailer
	images   *fakeImages
	recorder *AuditRecorder
}

func newEnv() *env {
	store := newMemStore()
	return &env{
		store:    store,
		tx:       &fakeTx{store: store},
		cache:    newFakeCache(),
		queue:    &fakeQueue{},
		mailer:   &fakeMailer{},
		images:   &fakeImages{},
		recorder: NewAuditRecorder(fakeAuditRepo{store}, nopLogger()),
	}
}

func (env *env) purchaseUC() *PurchaseUseCase {
	s := env.store
	return NewPurchaseUC(env.tx, fakePurchaseRepo{s}, fakeProductRepo{s}, fakeCustomerRepo{s},
		fakeOutboxRepo{s}, env.cache, time.UTC, nopLogger())
}

func (env *env) productUC() *ProductUseCase {
	s := env.store
	return NewProductUC(env.tx, fakeProductRepo{s}, fakeCategoryRepo{s}, fakeLinkRepo{s}, fakeImageRepo{s},
		fakePurchaseRepo{s}, fakeAuditRepo{s}, env.images, env.recorder, env.cache, nopLogger())
}

func (env *env) categoryUC() *CategoryUseCase {
	s := env.store
	return NewCategoryUC(env.tx, fakeCategoryRepo{s}, fakeLinkRepo{s}, fakeAuditRepo{s}, env.recorder, env.cache, nopLogger())
}

func (env *env) reportUC() *ReportUseCase {
	return NewReportUC(fakePurchaseRepo{env.store}, env.cache, time.UTC, nopLogger())
}

func (env *env) notificationUC() *NotificationUseCase {
	s := env.store
	return NewNotificationUC(env.reportUC(), fakePurchaseRepo{s}, fakeProductRepo{s}, fakeCustomerRepo{s},
		fakeAdminRepo{s}, env.mailer, nopLogger())
}

func (env *env) addAdmin(email string) domain.Admin {
	a, _ := fakeAdminRepo{env.store}.Create(context.Background(), domain.NewAdmin(email, "Admin "+email, "hash"))
	return *a
}

func (env *env) addCategory(name string, adminID int64) domain.Category {
	c, _ := fakeCategoryRepo{env.store}.Create(context.Background(), domain.NewCategory(name, "Category description", adminID))
	return *c
}

func (env *env) addProduct(name string, price string, stock int64, adminID int64, categoryIDs ...int64) domain.Product {
	p, _ := fakeProductRepo{env.store}.Create(context.Background(),
		domain.NewProduct(name, "Product description", decimal.RequireFromString(price), stock, adminID))
	for _, id := range categoryIDs {
		_, _ = fakeLinkRepo{env.store}.Create(context.Background(), p.ID, id)
	}
	return *p
}

func (env *env) addCustomer(email string) domain.Customer {
	c, _ := fakeCustomerRepo{env.store}.Create(context.Background(), domain.NewCustomer(email, "Customer", nil, nil))
	return *c
}

func (env *env) auditCount() int {
	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	return len(env.store.audits)
}

func (env *env) auditsFor(s domain.Subject) []domain.AuditLog {
	logs, _ := fakeAuditRepo{env.store}.ListBySubject(context.Background(), s)
	return logs
}
