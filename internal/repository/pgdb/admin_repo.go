package pgdb

import (
	"context"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const adminColumns = `id, email, name, password_hash, created_at, updated_at`

// AdminRepo реализует репозиторий администраторов поверх PostgreSQL.
type AdminRepo struct {
	pool *pgxpool.Pool
	conv converter.AdminConverter
}

func NewAdminRepo(pool *pgxpool.Pool, conv converter.AdminConverter) *AdminRepo {
	return &AdminRepo{pool: pool, conv: conv}
}

func (a *AdminRepo) Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	query := `
		INSERT INTO admins (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + adminColumns

	model := a.conv.ToModel(admin)
	if err := tr.FromCtx(ctx, a.pool).QueryRow(ctx, query, model.Email, model.Name, model.PasswordHash).
		Scan(&model.ID, &model.Email, &model.Name, &model.PasswordHash, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "email"))
	}

	return a.conv.ToEntity(model), nil
}

func (a *AdminRepo) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	return a.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

func (a *AdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return a.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
}

func (a *AdminRepo) getOne(ctx context.Context, query string, key any) (*domain.Admin, error) {
	var model converter.AdminModel
	if err := tr.FromCtx(ctx, a.pool).QueryRow(ctx, query, key).
		Scan(&model.ID, &model.Email, &model.Name, &model.PasswordHash, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "admin", key))
	}

	return a.conv.ToEntity(&model), nil
}

// List возвращает всех администраторов по возрастанию id.
func (a *AdminRepo) List(ctx context.Context) ([]domain.Admin, error) {
	rows, err := tr.FromCtx(ctx, a.pool).Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY id`)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Admin, 0)
	for rows.Next() {
		var model converter.AdminModel
		if err := rows.Scan(&model.ID, &model.Email, &model.Name, &model.PasswordHash, &model.CreatedAt, &model.UpdatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *a.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func (a *AdminRepo) CountOwned(ctx context.Context, id int64) (*usecase.AdminCounters, error) {
	query := `
		SELECT
			(SELECT count(*) FROM products WHERE admin_id = $1),
			(SELECT count(*) FROM categories WHERE admin_id = $1)
	`

	var counters usecase.AdminCounters
	if err := tr.FromCtx(ctx, a.pool).QueryRow(ctx, query, id).Scan(&counters.Products, &counters.Categories); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &counters, nil
}
