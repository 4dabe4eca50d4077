package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, name, description, price, stock, admin_id, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool    *pgxpool.Pool
	conv    converter.ProductConverter
	catConv converter.CategoryConverter
	imgConv converter.ProductImageConverter
}

func NewProductRepo(
	pool *pgxpool.Pool,
	conv converter.ProductConverter,
	catConv converter.CategoryConverter,
	imgConv converter.ProductImageConverter,
) *ProductRepo {
	return &ProductRepo{
		pool:    pool,
		conv:    conv,
		catConv: catConv,
		imgConv: imgConv,
	}
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var m converter.ProductModel
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Stock, &m.AdminID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, description, price, stock, admin_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	model := p.conv.ToModel(product)
	created, err := scanProduct(tr.FromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.Name, model.Description, model.Price, model.Stock, model.AdminID,
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "product"))
	}

	return p.conv.ToEntity(created), nil
}

// Update меняет редактируемые атрибуты. Остаток меняется только через DecrementStock.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(tr.FromCtx(ctx, p.pool).QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price,
	))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "product", product.ID))
	}

	return p.conv.ToEntity(updated), nil
}

func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.FromCtx(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.NewNotFoundError("product", id)
	}

	return nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m, err := scanProduct(tr.FromCtx(ctx, p.pool).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "product", id))
	}

	products := []domain.Product{*p.conv.ToEntity(m)}
	if err := p.attach(ctx, products); err != nil {
		return nil, err
	}

	return &products[0], nil
}

// GetForUpdate блокирует строку товара (SELECT ... FOR UPDATE) до конца текущей транзакции.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	m, err := scanProduct(tr.FromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "product", id))
	}

	return p.conv.ToEntity(m), nil
}

// DecrementStock списывает остаток одним условным UPDATE.
// Если остатка не хватает, строка не меняется и возвращается текущий остаток.
func (p *ProductRepo) DecrementStock(ctx context.Context, id int64, quantity int64) (int64, bool, error) {
	return decrementStock(ctx, tr.FromCtx(ctx, p.pool), id, quantity)
}

// rowQuerier — часть tr.Querier, нужная для однострочных запросов.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func decrementStock(ctx context.Context, q rowQuerier, id int64, quantity int64) (int64, bool, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`

	var stock int64
	err := q.QueryRow(ctx, query, id, quantity).Scan(&stock)
	if err == nil {
		return stock, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock); err != nil {
		return 0, false, e.Wrap(whereami.WhereAmI(), notFound(err, "product", id))
	}

	return stock, false, nil
}

func (p *ProductRepo) List(ctx context.Context, page usecase.Page) ([]domain.Product, int64, error) {
	q := tr.FromCtx(ctx, p.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, page.PerPage)
	for rows.Next() {
		m, err := scanProduct(rows)
		if err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		products = append(products, *p.conv.ToEntity(m))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	rows.Close()

	if err := p.attach(ctx, products); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (p *ProductRepo) Stats(ctx context.Context, id int64) (*usecase.ProductStats, error) {
	query := `
		SELECT count(*), COALESCE(sum(total_price), 0), min(purchased_at), max(purchased_at)
		FROM purchases
		WHERE product_id = $1
	`

	var stats usecase.ProductStats
	if err := tr.FromCtx(ctx, p.pool).QueryRow(ctx, query, id).
		Scan(&stats.TotalPurchases, &stats.TotalRevenue, &stats.FirstPurchase, &stats.LastPurchase); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &stats, nil
}

// attach подгружает категории и изображения для набора товаров двумя запросами.
func (p *ProductRepo) attach(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids = append(ids, products[i].ID)
		index[products[i].ID] = i
	}

	q := tr.FromCtx(ctx, p.pool)

	catRows, err := q.Query(ctx, `
		SELECT pc.product_id, c.id, c.name, c.description, c.admin_id, c.created_at, c.updated_at
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY c.name, c.id
	`, ids)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var (
			productID int64
			m         converter.CategoryModel
		)
		if err := catRows.Scan(&productID, &m.ID, &m.Name, &m.Description, &m.AdminID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		i := index[productID]
		products[i].Categories = append(products[i].Categories, *p.catConv.ToEntity(&m))
	}
	if err := catRows.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	catRows.Close()

	imgRows, err := q.Query(ctx, `
		SELECT `+imageColumns+`
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		m, err := scanImage(imgRows)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
		i := index[m.ProductID]
		products[i].Images = append(products[i].Images, *p.imgConv.ToEntity(m))
	}

	if err := imgRows.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
