package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// AdminAuditUsecase lets the back office read what admins changed.
type AdminAuditUsecase struct {
	logs   repo.AuditLogRepository
	logger *zap.Logger
}

func NewAdminAuditUsecase(logs repo.AuditLogRepository, logger *zap.Logger) *AdminAuditUsecase {
	return &AdminAuditUsecase{logs: logs, logger: logger}
}

// GET /admin/audit-logs input
type AdminAuditListInput struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
}

type AdminAuditListOutput struct {
	Items []model.AuditLog `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// List returns audit entries newest first.
func (u *AdminAuditUsecase) List(ctx context.Context, in AdminAuditListInput) (AdminAuditListOutput, error) {
	if in.Page < 1 {
		return AdminAuditListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 200 {
		return AdminAuditListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return AdminAuditListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      (in.Page - 1) * in.Limit,
	}

	if v := strings.ToUpper(strings.TrimSpace(in.Action)); v != "" {
		action := model.AuditAction(v)
		if !action.Valid() {
			return AdminAuditListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		filter.Action = &action
	}
	if v := strings.ToLower(strings.TrimSpace(in.ResourceType)); v != "" {
		rt := model.AuditResourceType(v)
		if !rt.Valid() {
			return AdminAuditListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		filter.ResourceType = &rt
	}
	if v := strings.TrimSpace(in.ResourceID); v != "" {
		filter.ResourceID = &v
	}

	logs, err := u.logs.List(ctx, filter)
	if err != nil {
		u.logger.Error("list audit logs", zap.Error(err))
		return AdminAuditListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AdminAuditListOutput{Items: logs, Page: in.Page, Limit: in.Limit}, nil
}
