package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid はcustomer/adminのどちらか
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

type User struct {
	ID           string `gorm:"type:uuid;primaryKey" bson:"_id"`
	FullName     string `gorm:"type:varchar(255);not null" bson:"fullName"`
	PhoneNumber  string `gorm:"type:varchar(32);uniqueIndex:uq_users_phone_number;not null" bson:"phoneNumber"`
	Email        string `gorm:"type:varchar(255);uniqueIndex:uq_users_email;not null" bson:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" bson:"passwordHash"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'customer'" bson:"role"`

	//リセットコードはSHA-256のhexで保存（平文は保存しない）
	ResetCodeHash      string     `gorm:"type:varchar(64)" bson:"resetCodeHash,omitempty"`
	ResetCodeExpiresAt *time.Time `gorm:"index" bson:"resetCodeExpiresAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// HasResetCode はリセットコードが発行済みか
func (u *User) HasResetCode() bool {
	return u.ResetCodeHash != "" && u.ResetCodeExpiresAt != nil
}

// ClearResetCode はリセットコードを無効化する
func (u *User) ClearResetCode() {
	u.ResetCodeHash = ""
	u.ResetCodeExpiresAt = nil
}
