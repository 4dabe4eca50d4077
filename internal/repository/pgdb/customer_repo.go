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

const customerColumns = `id, email, name, phone, address, created_at, updated_at`

type CustomerRepo struct {
	pool *pgxpool.Pool
	conv converter.CustomerConverter
}

func NewCustomerRepo(pool *pgxpool.Pool, conv converter.CustomerConverter) *CustomerRepo {
	return &CustomerRepo{pool: pool, conv: conv}
}

func scanCustomer(row pgx.Row) (*converter.CustomerModel, error) {
	var m converter.CustomerModel
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Address, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

func (c *CustomerRepo) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	query := `
		INSERT INTO customers (email, name, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + customerColumns

	m := c.conv.ToModel(customer)
	created, err := scanCustomer(tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, m.Email, m.Name, m.Phone, m.Address))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(err, "email"))
	}

	return c.conv.ToEntity(created), nil
}

func (c *CustomerRepo) Update(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	query := `
		UPDATE customers
		SET email = $2, name = $3, phone = $4, address = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + customerColumns

	m := c.conv.ToModel(customer)
	updated, err := scanCustomer(tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, m.ID, m.Email, m.Name, m.Phone, m.Address))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), constraintError(notFound(err, "customer", customer.ID), "email"))
	}

	return c.conv.ToEntity(updated), nil
}

// Delete удаляет покупателя. Его покупки удаляются каскадом.
func (c *CustomerRepo) Delete(ctx context.Context, id int64) error {
	tag, err := tr.FromCtx(ctx, c.pool).Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return e.NewNotFoundError("customer", id)
	}

	return nil
}

func (c *CustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	m, err := scanCustomer(tr.FromCtx(ctx, c.pool).QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), notFound(err, "customer", id))
	}

	return c.conv.ToEntity(m), nil
}

func (c *CustomerRepo) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	if err := tr.FromCtx(ctx, c.pool).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1 AND id <> $2)`, email, excludeID).
		Scan(&exists); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (c *CustomerRepo) List(ctx context.Context, page usecase.Page) ([]domain.Customer, int64, error) {
	q := tr.FromCtx(ctx, c.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Customer, 0, page.PerPage)
	for rows.Next() {
		m, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}
		result = append(result, *c.conv.ToEntity(m))
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, total, nil
}

func (c *CustomerRepo) Stats(ctx context.Context, id int64) (*usecase.CustomerStats, error) {
	query := `
		SELECT count(*), COALESCE(sum(total_price), 0), max(purchased_at)
		FROM purchases
		WHERE customer_id = $1
	`

	var stats usecase.CustomerStats
	if err := tr.FromCtx(ctx, c.pool).QueryRow(ctx, query, id).
		Scan(&stats.PurchaseCount, &stats.TotalSpent, &stats.LastPurchase); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &stats, nil
}
