package model

import "github.com/shopspring/decimal"

// 注文明細（商品名・価格・画像は注文時点のコピー）
type OrderItem struct {
	OrderID   string          `gorm:"type:uuid;primaryKey" bson:"-"`
	Line      int             `gorm:"primaryKey" bson:"-"`
	ProductID string          `gorm:"type:uuid;not null;index" bson:"productId"`
	Name      string          `gorm:"type:varchar(255);not null" bson:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" bson:"price"`
	Size      string          `gorm:"type:varchar(32);not null" bson:"size"`
	Quantity  int64           `gorm:"not null" bson:"quantity"`
	Image     string          `gorm:"type:text" bson:"image"`
}

// Subtotal は price×quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}
