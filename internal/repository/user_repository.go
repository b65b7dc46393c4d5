package repository

import (
	"context"
	"time"

	"ortus/internal/domain/model"
)

// 保存・取得を約束。見つからない場合は ErrNotFound を返す。
type UserRepository interface {
	//新規ユーザー作成（phone/email重複は ErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	// 注文一覧に顧客情報を付けるためにまとめて取得する。
	FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//電話番号からユーザーを一件取得する。
	FindByPhone(ctx context.Context, phoneNumber string) (*model.User, error)
	// プロフィール・パスワード・リセットコードの更新
	Update(ctx context.Context, user *model.User) error
	//期限切れのリセットコードを消す。消した件数を返す。
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
}
