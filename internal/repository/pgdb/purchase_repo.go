package pgdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const purchaseColumns = `id, customer_id, product_id, quantity, total_price, purchased_at, created_at`

// categoriesJSON агрегирует категории товара p в JSON-массив [{id, name}].
const categoriesJSON = `
	COALESCE((
		SELECT json_agg(json_build_object('id', cat.id, 'name', cat.name) ORDER BY cat.name, cat.id)
		FROM product_categories pc
		JOIN categories cat ON cat.id = pc.category_id
		WHERE pc.product_id = p.id
	), '[]'::json)`

const detailsSelect = `
	SELECT
		pu.id, pu.customer_id, pu.product_id, pu.quantity, pu.total_price, pu.purchased_at, pu.created_at,
		c.id, c.email, c.name, c.phone, c.address, c.created_at, c.updated_at,
		p.id, p.name, p.description, p.price, p.stock, p.admin_id, p.created_at, p.updated_at,
		a.name,
		` + categoriesJSON + `
	FROM purchases pu
	JOIN customers c ON c.id = pu.customer_id
	JOIN products p ON p.id = pu.product_id
	JOIN admins a ON a.id = p.admin_id`

// PurchaseRepo реализует репозиторий покупок и выборки для отчётов.
type PurchaseRepo struct {
	pool     *pgxpool.Pool
	conv     converter.PurchaseConverter
	custConv converter.CustomerConverter
	prodConv converter.ProductConverter
}

func NewPurchaseRepo(
	pool *pgxpool.Pool,
	conv converter.PurchaseConverter,
	custConv converter.CustomerConverter,
	prodConv converter.ProductConverter,
) *PurchaseRepo {
	return &PurchaseRepo{
		pool:     pool,
		conv:     conv,
		custConv: custConv,
		prodConv: prodConv,
	}
}

func scanPurchase(row pgx.Row) (*converter.PurchaseModel, error) {
	var m converter.PurchaseModel
	if err := row.Scan(&m.ID, &m.CustomerID, &m.ProductID, &m.Quantity, &m.TotalPrice, &m.PurchasedAt, &m.CreatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *PurchaseRepo) Create(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error) {
	query := `
		INSERT INTO purchases (customer_id, product_id, quantity, total_price, purchased_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + purchaseColumns

	m := r.conv.ToModel(purchase)
	created, err := scanPurchase(tr.FromCtx(ctx, r.pool).QueryRow(ctx, query,
		m.CustomerID, m.ProductID, m.Quantity, m.TotalPrice, m.PurchasedAt,
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "purchase"))
	}

	return r.conv.ToEntity(created), nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id int64) (*domain.Purchase, error) {
	m, err := scanPurchase(tr.FromCtx(ctx, r.pool).QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "purchase", id))
	}

	return r.conv.ToEntity(m), nil
}

func (r *PurchaseRepo) GetDetails(ctx context.Context, id int64) (*domain.PurchaseDetails, error) {
	d, err := r.scanDetails(tr.FromCtx(ctx, r.pool).QueryRow(ctx, detailsSelect+` WHERE pu.id = $1`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "purchase", id))
	}

	return d, nil
}

// IsFirstForProduct проверяет, что нет более ранней покупки товара по (purchased_at, id).
func (r *PurchaseRepo) IsFirstForProduct(ctx context.Context, purchase *domain.Purchase) (bool, error) {
	query := `
		SELECT NOT EXISTS (
			SELECT 1 FROM purchases
			WHERE product_id = $1 AND (purchased_at, id) < ($2, $3)
		)
	`

	var first bool
	if err := tr.FromCtx(ctx, r.pool).QueryRow(ctx, query, purchase.ProductID, purchase.PurchasedAt, purchase.ID).
		Scan(&first); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return first, nil
}

// ListDetails возвращает страницу покупок, новые первыми.
func (r *PurchaseRepo) ListDetails(
	ctx context.Context,
	filter *domain.PurchaseFilter,
	page usecase.Page,
) ([]domain.PurchaseDetails, int64, error) {
	q := tr.FromCtx(ctx, r.pool)
	where, args := purchaseWhere(filter)

	var total int64
	countQuery := `SELECT count(*) FROM purchases pu JOIN products p ON p.id = pu.product_id` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	n := len(args)
	query := fmt.Sprintf(`%s%s ORDER BY pu.purchased_at DESC, pu.id DESC LIMIT $%d OFFSET $%d`, detailsSelect, where, n+1, n+2)
	rows, err := q.Query(ctx, query, append(args, page.PerPage, page.Offset())...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.PurchaseDetails, 0, page.PerPage)
	for rows.Next() {
		d, err := r.scanDetails(rows)
		if err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, total, nil
}

// Facts выбирает покупки под фильтром вместе с данными для отчётов, по возрастанию (purchased_at, id).
func (r *PurchaseRepo) Facts(ctx context.Context, filter *domain.PurchaseFilter) ([]domain.PurchaseFact, error) {
	where, args := purchaseWhere(filter)
	query := `
		SELECT
			pu.id, pu.purchased_at, pu.quantity, pu.total_price,
			p.id, p.name, p.price, p.admin_id, a.name,
			c.id, c.name, c.email,
			` + categoriesJSON + `
		FROM purchases pu
		JOIN products p ON p.id = pu.product_id
		JOIN admins a ON a.id = p.admin_id
		JOIN customers c ON c.id = pu.customer_id` + where + `
		ORDER BY pu.purchased_at, pu.id`

	rows, err := tr.FromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.PurchaseFact, 0)
	for rows.Next() {
		var f domain.PurchaseFact
		if err := rows.Scan(
			&f.PurchaseID, &f.PurchasedAt, &f.Quantity, &f.TotalPrice,
			&f.ProductID, &f.ProductName, &f.ProductPrice, &f.AdminID, &f.AdminName,
			&f.CustomerID, &f.CustomerName, &f.CustomerEmail,
			&f.Categories,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// truncUnit — единица date_trunc для шага g. Недели начинаются с воскресенья,
// поэтому в базе они группируются по дням и сворачиваются в недели уже в коде.
func truncUnit(g domain.Granularity) string {
	switch g {
	case domain.GranularityHour:
		return "hour"
	case domain.GranularityYear:
		return "year"
	default:
		return "day"
	}
}

func tzName(loc *time.Location) string {
	if loc == nil {
		return "UTC"
	}
	return loc.String()
}

func countByPeriodQuery(filter *domain.PurchaseFilter, g domain.Granularity, loc *time.Location) (string, []any) {
	where, args := purchaseWhere(filter)
	args = append(args, tzName(loc))

	query := fmt.Sprintf(`
		SELECT date_trunc('%s', pu.purchased_at AT TIME ZONE $%d) AS bucket, count(*)
		FROM purchases pu
		JOIN products p ON p.id = pu.product_id%s
		GROUP BY bucket
		ORDER BY bucket`, truncUnit(g), len(args), where)

	return query, args
}

func (r *PurchaseRepo) CountByPeriod(
	ctx context.Context,
	filter *domain.PurchaseFilter,
	g domain.Granularity,
	loc *time.Location,
) ([]domain.BucketCount, error) {
	query, args := countByPeriodQuery(filter, g, loc)

	rows, err := tr.FromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.BucketCount, 0)
	for rows.Next() {
		var c domain.BucketCount
		if err := rows.Scan(&c.Start, &c.Count); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// categoryProductTotals — покупки, сгруппированные по (категория, товар).
// Товар без категорий в эти отчёты не попадает.
const categoryProductTotals = `
	SELECT
		c.id AS category_id, c.name AS category_name,
		p.id AS product_id, p.name AS product_name,
		count(pu.id) AS purchase_count, sum(pu.total_price) AS total_revenue
	FROM purchases pu
	JOIN products p ON p.id = pu.product_id
	JOIN product_categories pc ON pc.product_id = p.id
	JOIN categories c ON c.id = pc.category_id
	GROUP BY c.id, p.id`

// MostPurchasedByCategory ранжирует товары внутри категории по числу покупок, при равенстве по id.
func (r *PurchaseRepo) MostPurchasedByCategory(ctx context.Context, limit int) ([]domain.CategoryProductTotal, error) {
	query := `
		WITH totals AS (` + categoryProductTotals + `
		), ranked AS (
			SELECT
				t.*,
				sum(t.total_revenue) OVER (PARTITION BY t.category_id) AS category_revenue,
				row_number() OVER (PARTITION BY t.category_id ORDER BY t.purchase_count DESC, t.product_id) AS rank
			FROM totals t
		)
		SELECT category_id, category_name, category_revenue, product_id, product_name, purchase_count, total_revenue
		FROM ranked
		WHERE rank <= $1
		ORDER BY category_name, category_id, rank`

	return r.categoryTotals(ctx, query, limit)
}

// TopRevenueByCategory выбирает самые доходные категории и самые доходные товары в них.
func (r *PurchaseRepo) TopRevenueByCategory(ctx context.Context, categories, products int) ([]domain.CategoryProductTotal, error) {
	query := `
		WITH totals AS (` + categoryProductTotals + `
		), top_categories AS (
			SELECT category_id, sum(total_revenue) AS category_revenue
			FROM totals
			GROUP BY category_id
			ORDER BY category_revenue DESC, category_id
			LIMIT $1
		), ranked AS (
			SELECT
				t.*,
				tc.category_revenue,
				row_number() OVER (PARTITION BY t.category_id ORDER BY t.total_revenue DESC, t.product_id) AS rank
			FROM totals t
			JOIN top_categories tc ON tc.category_id = t.category_id
		)
		SELECT category_id, category_name, category_revenue, product_id, product_name, purchase_count, total_revenue
		FROM ranked
		WHERE rank <= $2
		ORDER BY category_revenue DESC, category_id, rank`

	return r.categoryTotals(ctx, query, categories, products)
}

func (r *PurchaseRepo) categoryTotals(ctx context.Context, query string, args ...any) ([]domain.CategoryProductTotal, error) {
	rows, err := tr.FromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.CategoryProductTotal, 0)
	for rows.Next() {
		var t domain.CategoryProductTotal
		if err := rows.Scan(
			&t.Category.ID, &t.Category.Name, &t.CategoryRevenue,
			&t.Product.ID, &t.Product.Name, &t.Product.PurchaseCount, &t.Product.TotalRevenue,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (r *PurchaseRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	if _, err := tr.FromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM purchases WHERE product_id = $1`, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *PurchaseRepo) scanDetails(row pgx.Row) (*domain.PurchaseDetails, error) {
	var (
		pu   converter.PurchaseModel
		cu   converter.CustomerModel
		pr   converter.ProductModel
		refs []domain.CategoryRef
		d    domain.PurchaseDetails
	)

	if err := row.Scan(
		&pu.ID, &pu.CustomerID, &pu.ProductID, &pu.Quantity, &pu.TotalPrice, &pu.PurchasedAt, &pu.CreatedAt,
		&cu.ID, &cu.Email, &cu.Name, &cu.Phone, &cu.Address, &cu.CreatedAt, &cu.UpdatedAt,
		&pr.ID, &pr.Name, &pr.Description, &pr.Price, &pr.Stock, &pr.AdminID, &pr.CreatedAt, &pr.UpdatedAt,
		&d.AdminName,
		&refs,
	); err != nil {
		return nil, err
	}

	d.Purchase = *r.conv.ToEntity(&pu)
	d.Customer = *r.custConv.ToEntity(&cu)
	d.Product = *r.prodConv.ToEntity(&pr)
	for _, ref := range refs {
		d.Categories = append(d.Categories, domain.Category{ID: ref.ID, Name: ref.Name})
	}

	return &d, nil
}

// purchaseWhere собирает WHERE по фильтру. Ожидает алиасы pu (purchases) и p (products).
func purchaseWhere(f *domain.PurchaseFilter) (string, []any) {
	if f == nil {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.StartDate != nil {
		add("pu.purchased_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("pu.purchased_at <= $%d", *f.EndDate)
	}
	if f.CustomerID != nil {
		add("pu.customer_id = $%d", *f.CustomerID)
	}
	if f.AdminID != nil {
		add("p.admin_id = $%d", *f.AdminID)
	}
	if f.CategoryID != nil {
		add("EXISTS (SELECT 1 FROM product_categories fc WHERE fc.product_id = pu.product_id AND fc.category_id = $%d)", *f.CategoryID)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
