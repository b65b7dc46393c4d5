package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 一覧検索。並び順は常に新しい順。
type ProductListQuery struct {
	Category   string
	ActiveOnly bool
}

// 部分更新。nilの項目は変更しない。
// Images/Sizes は渡された場合に丸ごと置き換える。
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Images      *[]string
	Sizes       *[]model.ProductSize
	IsActive    *bool
	UpdatedAt   time.Time
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	//論理削除済みも返す
	FindByID(ctx context.Context, id string) (model.Product, error)

	Create(ctx context.Context, p model.Product) error
	Update(ctx context.Context, id string, upd ProductUpdate) (model.Product, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}
