package repository

import (
	"context"

	"ortus/internal/domain/model"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足りるときだけ減らす（条件付きUPDATE 1本で判定と減算を同時に行う）
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID string, size string, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ProductSize{}).
		Where("product_id = ? AND size = ? AND stock >= ?", productID, size, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, translateGormErr(res.Error, "decrease stock")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}
