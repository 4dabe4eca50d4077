package pgdb

import (
	"context"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const categoryColumns = `id, name, description, admin_id, created_at, updated_at`

// CategoryRepo реализует репозиторий категорий поверх PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
	conv converter.CategoryConverter
}

func NewCategoryRepo(pool *pgxpool.Pool, conv converter.CategoryConverter) *CategoryRepo {
	return &CategoryRepo{pool: pool, conv: conv}
}

func scanCategory(row pgx.Row) (*converter.CategoryModel, error) {
	var m converter.CategoryModel
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.AdminID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

// Create создаёт категорию. Имя уникально без учёта регистра.
func (c *CategoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (name, description, admin_id)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns

	model := c.conv.ToModel(category)
	created, err := scanCategory(tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, model.Name, model.Description, model.AdminID))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "name"))
	}

	return c.conv.ToEntity(created), nil
}

func (c *CategoryRepo) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + categoryColumns

	updated, err := scanCategory(tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, category.ID, category.Name, category.Description))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(notFound(err, "category", category.ID), "name"))
	}

	return c.conv.ToEntity(updated), nil
}

func (c *CategoryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.FromCtx(ctx, c.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.NewNotFoundError("category", id)
	}

	return nil
}

func (c *CategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	m, err := scanCategory(tr.FromCtx(ctx, c.pool).QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "category", id))
	}

	return c.conv.ToEntity(m), nil
}

func (c *CategoryRepo) GetByIDs(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	return c.list(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1) ORDER BY name, id`, ids)
}

func (c *CategoryRepo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE lower(name) = lower($1) AND id <> $2)`

	var exists bool
	if err := tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, name, excludeID).Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (c *CategoryRepo) List(ctx context.Context, page usecase.Page) ([]domain.Category, int64, error) {
	var total int64
	if err := tr.FromCtx(ctx, c.pool).QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	categories, err := c.list(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// Stats считает товары категории и продажи этих товаров.
func (c *CategoryRepo) Stats(ctx context.Context, id int64) (*usecase.CategoryStats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM product_categories WHERE category_id = $1),
			count(pu.id),
			COALESCE(sum(pu.total_price), 0)
		FROM product_categories pc
		JOIN purchases pu ON pu.product_id = pc.product_id
		WHERE pc.category_id = $1
	`

	var stats usecase.CategoryStats
	if err := tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, id).
		Scan(&stats.ProductsCount, &stats.TotalPurchases, &stats.TotalRevenue); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &stats, nil
}

func (c *CategoryRepo) list(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := tr.FromCtx(ctx, c.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Category, 0)
	for rows.Next() {
		m, err := scanCategory(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *c.conv.ToEntity(m))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
