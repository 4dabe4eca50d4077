package usecase

import "context"

type actorKey struct{}

// WithActor привязывает к контексту администратора, от имени которого выполняется операция.
func WithActor(ctx context.Context, adminID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, adminID)
}

// ActorFromContext возвращает администратора, привязанного к контексту.
func ActorFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok && id > 0
}
