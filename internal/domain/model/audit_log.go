package model

import "time"

// 商品の作成・更新・削除、注文ステータス更新など。
type AuditAction string

const (
	AuditActionCreateProduct     AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct     AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct     AuditAction = "DELETE_PRODUCT"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id" bson:"_id"`

	//操作した管理者のID。
	ActorUserID string `gorm:"type:uuid;not null;index" json:"actorUserId" bson:"actorUserId"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action" bson:"action"`

	//対象の種類（product / order）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType" bson:"resourceType"`

	ResourceID string `gorm:"type:uuid;not null;index" json:"resourceId" bson:"resourceId"`

	//JSON文字列で保存する。作成時はBeforeが空、削除時も残す。
	BeforeJSON string `gorm:"type:text" json:"beforeJson" bson:"beforeJson"`
	AfterJSON  string `gorm:"type:text" json:"afterJson" bson:"afterJson"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt" bson:"createdAt"`
}
