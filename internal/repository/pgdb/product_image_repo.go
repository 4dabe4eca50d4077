package pgdb

import (
	"context"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const imageColumns = `id, product_id, image_url, caption, object_key, created_at`

type ProductImageRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductImageConverter
}

func NewProductImageRepo(pool *pgxpool.Pool, conv converter.ProductImageConverter) *ProductImageRepo {
	return &ProductImageRepo{pool: pool, conv: conv}
}

func scanImage(row pgx.Row) (*converter.ProductImageModel, error) {
	var m converter.ProductImageModel
	if err := row.Scan(&m.ID, &m.ProductID, &m.ImageURL, &m.Caption, &m.ObjectKey, &m.CreatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

// CreateMany вставляет изображения одним батчем.
func (r *ProductImageRepo) CreateMany(ctx context.Context, images []domain.ProductImage) ([]domain.ProductImage, error) {
	if len(images) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO product_images (product_id, image_url, caption, object_key)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + imageColumns

	batch := &pgx.Batch{}
	for i := range images {
		m := r.conv.ToModel(&images[i])
		batch.Queue(query, m.ProductID, m.ImageURL, m.Caption, m.ObjectKey)
	}

	results := tr.FromCtx(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	created := make([]domain.ProductImage, 0, len(images))
	for range images {
		m, err := scanImage(results.QueryRow())
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "product"))
		}
		created = append(created, *r.conv.ToEntity(m))
	}

	return created, nil
}

func (r *ProductImageRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	rows, err := tr.FromCtx(ctx, r.pool).Query(ctx,
		`SELECT `+imageColumns+` FROM product_images WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.ProductImage, 0)
	for rows.Next() {
		m, err := scanImage(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *r.conv.ToEntity(m))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (r *ProductImageRepo) DeleteByProduct(ctx context.Context, productID int64) error {
	if _, err := tr.FromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
