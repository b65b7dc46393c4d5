package repository

import "context"

type InventoryRepository interface {
	// 商品×サイズの在庫が足りるときだけ減算する。足りなければ false。
	DecreaseStockIfEnough(ctx context.Context, productID string, size string, qty int64) (bool, error)
}
