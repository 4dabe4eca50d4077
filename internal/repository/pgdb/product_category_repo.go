package pgdb

import (
	"context"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductCategoryRepo хранит связи товаров с категориями.
type ProductCategoryRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductCategoryConverter
}

func NewProductCategoryRepo(pool *pgxpool.Pool, conv converter.ProductCategoryConverter) *ProductCategoryRepo {
	return &ProductCategoryRepo{pool: pool, conv: conv}
}

func (r *ProductCategoryRepo) Create(ctx context.Context, productID, categoryID int64) (*domain.ProductCategory, error) {
	query := `
		INSERT INTO product_categories (product_id, category_id)
		VALUES ($1, $2)
		RETURNING id, product_id, category_id, created_at
	`

	var m converter.ProductCategoryModel
	if err := tr.FromCtx(ctx, r.pool).QueryRow(ctx, query, productID, categoryID).
		Scan(&m.ID, &m.ProductID, &m.CategoryID, &m.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "category_id"))
	}

	return r.conv.ToEntity(&m), nil
}

func (r *ProductCategoryRepo) Delete(ctx context.Context, id int64) error {
	if _, err := tr.FromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM product_categories WHERE id = $1`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *ProductCategoryRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.ProductCategory, error) {
	rows, err := tr.FromCtx(ctx, r.pool).Query(ctx, `
		SELECT id, product_id, category_id, created_at
		FROM product_categories
		WHERE product_id = $1
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.ProductCategory, 0)
	for rows.Next() {
		var m converter.ProductCategoryModel
		if err := rows.Scan(&m.ID, &m.ProductID, &m.CategoryID, &m.CreatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *r.conv.ToEntity(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (r *ProductCategoryRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	if _, err := tr.FromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *ProductCategoryRepo) DeleteByCategory(ctx context.Context, categoryID int64) error {
	if _, err := tr.FromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM product_categories WHERE category_id = $1`, categoryID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
