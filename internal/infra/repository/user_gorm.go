package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
	domainrepo "ortus/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return translateGormErr(r.db.WithContext(ctx).Create(user).Error, "create user")
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userGormRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateGormErr(err, "find users by ids")
	}
	return users, nil
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userGormRepository) FindByPhone(ctx context.Context, phoneNumber string) (*model.User, error) {
	return r.findOne(ctx, "phone_number = ?", phoneNumber)
}

func (r *userGormRepository) findOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&u).Error; err != nil {
		return nil, translateGormErr(err, "find user")
	}
	return &u, nil
}

// ユーザーを更新。
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Select("full_name", "phone_number", "password_hash", "reset_code_hash", "reset_code_expires_at", "updated_at").
		Updates(user)
	if res.Error != nil {
		return translateGormErr(res.Error, "update user")
	}
	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *userGormRepository) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("reset_code_expires_at IS NOT NULL AND reset_code_expires_at < ?", now).
		Updates(map[string]interface{}{
			"reset_code_hash":       "",
			"reset_code_expires_at": nil,
		})
	if res.Error != nil {
		return 0, translateGormErr(res.Error, "clear expired reset codes")
	}
	return res.RowsAffected, nil
}
