package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
)

// 注文一覧の絞り込み。並び順は常に新しい順。
type OrderListFilter struct {
	UserID            string
	DeliveryRequested *bool
	From              *time.Time
	To                *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, at time.Time) error
	//deliveryType=delivery, deliveryRequested=true にする
	MarkDeliveryRequested(ctx context.Context, orderID string, at time.Time) error
}
