package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
	repo "ortus/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 注文と明細をまとめて作成
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Line = i + 1
	}
	return translateGormErr(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("Items", orderLines).Where("id = ?", orderID).First(&o).Error
	if err != nil {
		return model.Order{}, translateGormErr(err, "find order")
	}
	return o, nil
}

// 新しい順
func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Preload("Items", orderLines)

	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.DeliveryRequested != nil {
		q = q.Where("delivery_requested = ?", *f.DeliveryRequested)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var orders []model.Order
	if err := q.Order("created_at desc").Order("id desc").Find(&orders).Error; err != nil {
		return nil, translateGormErr(err, "list orders")
	}
	return orders, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, at time.Time) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"status":     status,
		"updated_at": at,
	})
}

func (r *OrderGormRepository) MarkDeliveryRequested(ctx context.Context, orderID string, at time.Time) error {
	return r.update(ctx, orderID, map[string]interface{}{
		"delivery_type":      model.DeliveryTypeDelivery,
		"delivery_requested": true,
		"updated_at":         at,
	})
}

func (r *OrderGormRepository) update(ctx context.Context, orderID string, cols map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID).Updates(cols)
	if res.Error != nil {
		return translateGormErr(res.Error, "update order")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("line asc")
}
