package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier — общий набор методов pgx.Tx и pgxpool.Pool, который используют репозитории.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// FromCtx возвращает транзакцию из контекста, если она открыта менеджером транзакций,
// иначе сам пул соединений.
func FromCtx(ctx context.Context, db trmpgx.Tr) Querier {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, db)
}
