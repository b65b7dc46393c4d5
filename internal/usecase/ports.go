package usecase

import (
	"context"
	"time"

	"ortus/internal/domain/model"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 注文番号（人が読む番号）を作る約束
type OrderNumberGenerator interface {
	NextOrderNumber() string
}

// 平文パスワードとハッシュ
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// TokenIssuer は {id, userType} 入りのbearerトークンを発行する
type TokenIssuer interface {
	Issue(userID string, role model.Role, now time.Time) (string, error)
}

// ResetCodeSender はリセットコードをメールで届ける
type ResetCodeSender interface {
	SendResetCode(ctx context.Context, recipient, code, displayName string) error
}

// ImageUploader は画像を保存して、入力と同じ順番でURLを返す
type ImageUploader interface {
	Upload(ctx context.Context, files []model.ImageFile) ([]string, error)
	// Remove はベストエフォートで消す
	Remove(ctx context.Context, urls []string)
}

// ProductCache は公開商品一覧のキャッシュ。失敗はミス扱いでよい。
type ProductCache interface {
	Get(ctx context.Context, category string) ([]model.Product, bool)
	Set(ctx context.Context, category string, products []model.Product)
	Invalidate(ctx context.Context)
}

// Actor は認証済みの呼び出し元
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return NewAuthorizationError("admin access required")
	}
	return nil
}
