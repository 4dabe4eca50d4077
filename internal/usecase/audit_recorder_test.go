package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecorder_Attribution(t *testing.T) {
	tests := []struct {
		name   string
		action domain.AuditAction
		actor  int64
		owner  int64
		want   int64
	}{
		{name: "actor wins for updates", action: domain.ActionUpdated, actor: 7, owner: 3, want: 7},
		{name: "owner without actor", action: domain.ActionUpdated, owner: 3, want: 3},
		{name: "association goes to owner", action: domain.ActionCategoryAssociated, actor: 7, owner: 3, want: 3},
		{name: "disassociation goes to owner", action: domain.ActionCategoryDisassociated, actor: 7, owner: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv()
			ctx := context.Background()
			if tt.actor > 0 {
				ctx = WithActor(ctx, tt.actor)
			}

			log := env.recorder.Record(ctx, tt.action, domain.ProductSubject(1), tt.owner, domain.Changes{"name": [2]any{"a", "b"}})
			require.NotNil(t, log)
			assert.Equal(t, tt.want, log.AdminID)
		})
	}
}

func TestAuditRecorder_SkipsEmptyChanges(t *testing.T) {
	env := newEnv()

	assert.Nil(t, env.recorder.Record(context.Background(), domain.ActionUpdated, domain.ProductSubject(1), 1, domain.Changes{}))
	assert.Nil(t, env.recorder.Record(context.Background(), domain.ActionCreated, domain.ProductSubject(1), 1, nil))
	assert.Zero(t, env.auditCount())
}

func TestAuditRecorder_SwallowsWriteErrors(t *testing.T) {
	env := newEnv()
	env.store.failAudit = true

	log := env.recorder.Record(context.Background(), domain.ActionCreated, domain.ProductSubject(1), 1, domain.Changes{"name": [2]any{nil, "x"}})
	assert.Nil(t, log)
	assert.Zero(t, env.auditCount())
}

func TestAuditRecorder_RequiresAdmin(t *testing.T) {
	env := newEnv()

	log := env.recorder.Record(context.Background(), domain.ActionCreated, domain.ProductSubject(1), 0, domain.Changes{"name": [2]any{nil, "x"}})
	assert.Nil(t, log)
	assert.Zero(t, env.auditCount())
}
