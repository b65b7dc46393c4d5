package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid は定義済みの5ステータスのどれか
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

// Order は注文。金額と明細は作成時点のスナップショットで、後から再計算しない。
type Order struct {
	ID                string          `gorm:"type:uuid;primaryKey" bson:"_id"`
	Number            string          `gorm:"type:varchar(32);not null;uniqueIndex" bson:"number"`
	UserID            string          `gorm:"type:uuid;not null;index" bson:"userId"`
	Items             []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" bson:"items"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null" bson:"totalAmount"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;index" bson:"status"`
	DeliveryType      DeliveryType    `gorm:"type:varchar(20);not null" bson:"deliveryType"`
	DeliveryRequested bool            `gorm:"not null;default:false;index" bson:"deliveryRequested"`
	CreatedAt         time.Time       `gorm:"not null;index" bson:"createdAt"`
	UpdatedAt         time.Time       `gorm:"not null" bson:"updatedAt"`
}
