package usecase

import (
	"context"
	"strings"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"
)

type AuditUsecase struct {
	audits repo.AuditLogRepository
}

func NewAuditUsecase(audits repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{audits: audits}
}

// 一覧の条件（空文字は条件なし）
type AuditListInput struct {
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	From         string
	To           string
	Limit        int
	Offset       int
}

func (u *AuditUsecase) List(ctx context.Context, actor Actor, in AuditListInput) ([]model.AuditLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if in.Limit < 0 || in.Offset < 0 {
		return nil, NewValidationError("limit and offset must not be negative")
	}

	f := repo.AuditLogFilter{Limit: in.Limit, Offset: in.Offset}
	if v := strings.TrimSpace(in.ActorUserID); v != "" {
		f.ActorUserID = &v
	}
	if v := strings.TrimSpace(in.Action); v != "" {
		a := model.AuditAction(strings.ToUpper(v))
		switch a {
		case model.AuditActionCreateProduct, model.AuditActionUpdateProduct,
			model.AuditActionDeleteProduct, model.AuditActionUpdateOrderStatus:
		default:
			return nil, NewValidationError("invalid action")
		}
		f.Action = &a
	}
	if v := strings.TrimSpace(in.ResourceType); v != "" {
		rt := model.AuditResourceType(strings.ToLower(v))
		if rt != model.AuditResourceProduct && rt != model.AuditResourceOrder {
			return nil, NewValidationError("invalid resource type")
		}
		f.ResourceType = &rt
	}
	if v := strings.TrimSpace(in.ResourceID); v != "" {
		f.ResourceID = &v
	}
	var err error
	if f.CreatedFrom, err = parseBound(in.From, false); err != nil {
		return nil, err
	}
	if f.CreatedTo, err = parseBound(in.To, true); err != nil {
		return nil, err
	}

	logs, err := u.audits.List(ctx, f)
	if err != nil {
		return nil, unexpected(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
