package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"ortus/internal/domain/model"
	"ortus/internal/repository"
	"ortus/internal/validator"
)

// レスポンス用のユーザー（パスワード・リセットコードは出さない）
type UserSummary struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	PhoneNumber string     `json:"phoneNumber"`
	Role        model.Role `json:"userType"`
}

type UserProfile struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	PhoneNumber string     `json:"phoneNumber"`
	Email       string     `json:"email"`
	Role        model.Role `json:"userType"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type RegisterInput struct {
	FullName    string
	PhoneNumber string
	Email       string
	Password    string
}

type UpdateDetailsInput struct {
	FullName    *string
	PhoneNumber *string
}

type AuthUsecase struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	mailer    ResetCodeSender
	clock     Clock
	ids       IDGenerator
	resetTTL  time.Duration
	dummyOnce sync.Once
	dummyHash string
}

// DI
func NewAuthUsecase(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	mailer ResetCodeSender,
	clock Clock,
	ids IDGenerator,
	resetTTL time.Duration,
) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		clock:    clock,
		ids:      ids,
		resetTTL: resetTTL,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	fullName := strings.TrimSpace(in.FullName)
	phone := validator.NormalizePhone(in.PhoneNumber)
	email := validator.NormalizeEmail(in.Email)

	if fullName == "" || phone == "" || email == "" || in.Password == "" {
		return AuthResult{}, NewValidationError("all fields are required")
	}
	if !validator.IsEmailLike(email) {
		return AuthResult{}, NewValidationError("invalid email format")
	}
	if err := validator.ValidatePassword(in.Password); err != nil {
		return AuthResult{}, NewValidationError(err.Error())
	}

	//先に重複チェック（最終的にはunique制約で守る）
	if _, err := u.users.FindByPhone(ctx, phone); err == nil {
		return AuthResult{}, NewConflictError("phone number already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, unexpected(err)
	}
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, NewConflictError("email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, unexpected(err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, unexpected(err)
	}

	now := u.clock.Now()
	user := &model.User{
		ID:           u.ids.NewID(),
		FullName:     fullName,
		PhoneNumber:  phone,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, NewConflictError("phone number or email already exists")
		}
		return AuthResult{}, unexpected(err)
	}

	return u.issue(user)
}

func (u *AuthUsecase) Login(ctx context.Context, phoneNumber, password string) (AuthResult, error) {
	phone := validator.NormalizePhone(phoneNumber)
	if phone == "" || password == "" {
		return AuthResult{}, NewValidationError("phone number and password are required")
	}

	user, err := u.users.FindByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, unexpected(err)
		}
		//存在しない場合も比較して応答時間を揃える
		_ = u.hasher.Compare(u.dummy(), password)
		return AuthResult{}, NewAuthenticationError("invalid credentials")
	}
	if err := u.hasher.Compare(user.PasswordHash, password); err != nil {
		return AuthResult{}, NewAuthenticationError("invalid credentials")
	}

	return u.issue(user)
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (UserProfile, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return UserProfile{}, err
	}
	return toUserProfile(user), nil
}

// UpdateDetails は渡された項目だけ変更する
func (u *AuthUsecase) UpdateDetails(ctx context.Context, userID string, in UpdateDetailsInput) (UserSummary, error) {
	var fullName, phone string
	if in.FullName != nil {
		fullName = strings.TrimSpace(*in.FullName)
	}
	if in.PhoneNumber != nil {
		phone = validator.NormalizePhone(*in.PhoneNumber)
	}
	if fullName == "" && phone == "" {
		return UserSummary{}, NewValidationError("at least one field (fullName or phoneNumber) is required")
	}

	user, err := u.findUser(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}

	if phone != "" && phone != user.PhoneNumber {
		other, err := u.users.FindByPhone(ctx, phone)
		switch {
		case err == nil && other.ID != user.ID:
			return UserSummary{}, NewConflictError("phone number already in use")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return UserSummary{}, unexpected(err)
		}
		user.PhoneNumber = phone
	}
	if fullName != "" {
		user.FullName = fullName
	}
	user.UpdatedAt = u.clock.Now()

	if err := u.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return UserSummary{}, NewConflictError("phone number already in use")
		}
		return UserSummary{}, unexpected(err)
	}
	return toUserSummary(user), nil
}

func (u *AuthUsecase) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return NewValidationError("current password and new password are required")
	}
	if err := validator.ValidatePassword(newPassword); err != nil {
		return NewValidationError(err.Error())
	}

	user, err := u.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return NewAuthenticationError("current password is incorrect")
	}

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return unexpected(err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = u.clock.Now()
	if err := u.users.Update(ctx, user); err != nil {
		return unexpected(err)
	}
	return nil
}

// RequestPasswordReset は毎回新しい6桁コードを発行してメールで送る
func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = validator.NormalizeEmail(email)
	if email == "" {
		return NewValidationError("email is required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("user with this email not found")
		}
		return unexpected(err)
	}

	code, err := newResetCode()
	if err != nil {
		return unexpected(err)
	}
	now := u.clock.Now()
	expires := now.Add(u.resetTTL)
	user.ResetCodeHash = hashResetCode(code)
	user.ResetCodeExpiresAt = &expires
	user.UpdatedAt = now
	if err := u.users.Update(ctx, user); err != nil {
		return unexpected(err)
	}

	if err := u.mailer.SendResetCode(ctx, user.Email, code, user.FullName); err != nil {
		//送れなかったコードは残さない
		user.ClearResetCode()
		if uerr := u.users.Update(ctx, user); uerr != nil {
			return unexpected(uerr)
		}
		return NewDeliveryError("failed to send reset code", err)
	}
	return nil
}

func (u *AuthUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = validator.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" || newPassword == "" {
		return NewValidationError("email, code and new password are required")
	}
	if err := validator.ValidatePassword(newPassword); err != nil {
		return NewValidationError(err.Error())
	}

	invalid := NewAuthenticationError("invalid or expired reset code")

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return unexpected(err)
	}
	if !user.HasResetCode() || u.clock.Now().After(*user.ResetCodeExpiresAt) {
		return invalid
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetCodeHash), []byte(hashResetCode(code))) != 1 {
		return invalid
	}

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return unexpected(err)
	}
	user.PasswordHash = hash
	user.ClearResetCode()
	user.UpdatedAt = u.clock.Now()
	if err := u.users.Update(ctx, user); err != nil {
		return unexpected(err)
	}
	return nil
}

func (u *AuthUsecase) findUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, unexpected(err)
	}
	return user, nil
}

func (u *AuthUsecase) issue(user *model.User) (AuthResult, error) {
	token, err := u.tokens.Issue(user.ID, user.Role, u.clock.Now())
	if err != nil {
		return AuthResult{}, unexpected(err)
	}
	return AuthResult{Token: token, User: toUserSummary(user)}, nil
}

// 存在しないユーザー用の比較対象
func (u *AuthUsecase) dummy() string {
	u.dummyOnce.Do(func() {
		h, err := u.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			u.dummyHash = h
		}
	})
	return u.dummyHash
}

// 000000〜999999
func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func toUserSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
	}
}

func toUserProfile(u *model.User) UserProfile {
	return UserProfile{
		ID:          u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}
