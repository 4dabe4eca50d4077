package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"Product":            "Product",
		"products":           "Product",
		"categories":         "Category",
		"product_categories": "ProductCategory",
		"ProductCategory":    "ProductCategory",
	}
	for in, want := range cases {
		assert.Equal(t, want, classify(in), in)
	}
}

func TestAuditLogByEntity(t *testing.T) {
	env := newEnv()
	admin := env.addAdmin("owner@shop.test")
	ctx := WithActor(context.Background(), admin.ID)
	category, err := env.categoryUC().CreateCategory(ctx, &CreateCategoryReq{Name: "Books", Description: "Paper and e-books"})
	require.NoError(t, err)

	uc := NewAuditLogUC(fakeAuditRepo{env.store})

	subject, logs, err := uc.ByEntity(context.Background(), "categories", category.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySubject(category.ID), subject)
	assert.Len(t, logs, 1)

	_, _, err = uc.ByEntity(context.Background(), "customers", 1)
	assert.True(t, e.IsValidation(err))
}

func TestAuditLogRecent(t *testing.T) {
	env := newEnv()
	env.store.audits = []domain.AuditLog{
		{ID: 1, Action: domain.ActionCreated, CreatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: 2, Action: domain.ActionUpdated, CreatedAt: time.Now().Add(-10 * time.Minute)},
	}

	logs, err := NewAuditLogUC(fakeAuditRepo{env.store}).Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(2), logs[0].ID)
}
