package usecase

import (
	"errors"
	"fmt"
)

// ErrorKind はhandlerでHTTPステータスに変換される
type ErrorKind int

const (
	KindUnexpected     ErrorKind = iota // 500
	KindValidation                      // 400 入力不足・ポリシー違反
	KindConflict                        // 409 phone/email重複
	KindAuthentication                  // 401 認証失敗・コード不一致
	KindAuthorization                   // 403 権限・所有者違い
	KindNotFound                        // 404
	KindDelivery                        // 502 メール送信失敗
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindDelivery:
		return "delivery"
	}
	return "unexpected"
}

// Error はusecaseが返すエラー。Messageだけがクライアントに返る。
// Errは内部原因でログにのみ出す。
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewConflictError(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NewAuthenticationError(msg string) error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func NewAuthorizationError(msg string) error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewDeliveryError(msg string, cause error) error {
	return &Error{Kind: KindDelivery, Message: msg, Err: cause}
}

// 想定外（DB障害など）はメッセージを固定して原因だけ持つ
func unexpected(cause error) error {
	return &Error{Kind: KindUnexpected, Message: "internal error", Err: cause}
}

// AsError はusecaseのErrorを取り出す
func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// KindOf はusecase以外のエラーを Unexpected とみなす
func KindOf(err error) ErrorKind {
	if ue, ok := AsError(err); ok {
		return ue.Kind
	}
	return KindUnexpected
}
