package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

func TestAuditLogGorm_CreateAndFilter(t *testing.T) {
	ctx := context.Background()
	r := NewAuditLogGormRepository(newTestDB(t))

	require.NoError(t, r.Create(ctx, model.AuditLog{
		ActorUserID: 1, Action: model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder, ResourceID: "10",
		BeforeJSON: `{"status":"pending"}`, AfterJSON: `{"status":"confirmed"}`,
	}))
	require.NoError(t, r.Create(ctx, model.AuditLog{
		ActorUserID: 1, Action: model.AuditActionUpsertProduct,
		ResourceType: model.AuditResourceProduct, ResourceID: "pipe-300",
	}))

	rid := "10"
	logs, err := r.List(ctx, repo.AuditLogFilter{ResourceID: &rid})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)

	all, err := r.List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pipe-300", all[0].ResourceID)
}
