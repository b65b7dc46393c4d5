package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 1商品あたりの画像の上限
const MaxProductImages = 5

// Product は商品。物理削除はせず IsActive=false で論理削除する。
type Product struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	Description string          `gorm:"type:text" json:"description" bson:"description"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category" bson:"category"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price" bson:"price"`
	Images      []string        `gorm:"type:jsonb;serializer:json;not null" json:"images" bson:"images"`
	Sizes       []ProductSize   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"sizes" bson:"sizes"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"isActive" bson:"isActive"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updatedAt" bson:"updatedAt"`
}

// サイズごとの在庫。stockはDB側でも0未満にならないようにする
type ProductSize struct {
	ProductID string `gorm:"type:uuid;primaryKey" json:"-" bson:"-"`
	Size      string `gorm:"type:varchar(32);primaryKey" json:"size" bson:"size"`
	Stock     int64  `gorm:"not null;check:chk_product_sizes_stock,stock >= 0" json:"stock" bson:"stock"`
	Position  int    `gorm:"not null;default:0" json:"-" bson:"-"`
}

// FindSize はラベルが一致するサイズを返す
func (p *Product) FindSize(label string) (ProductSize, bool) {
	for _, s := range p.Sizes {
		if s.Size == label {
			return s, true
		}
	}
	return ProductSize{}, false
}

// FirstImage は注文スナップショット用の代表画像
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
