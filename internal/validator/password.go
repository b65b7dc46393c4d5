package validator

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// パスワードに使える記号
const PasswordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"

const minPasswordLength = 8

// bcryptが扱える上限（バイト数）
const maxPasswordBytes = 72

var ErrWeakPassword = errors.New("password must be at least 8 characters and contain at least one uppercase letter and one symbol")

var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// ValidatePassword は 8文字以上・72バイト以下・大文字1つ以上・記号1つ以上 を確認する
func ValidatePassword(p string) error {
	if utf8.RuneCountInString(p) < minPasswordLength {
		return ErrWeakPassword
	}
	if len(p) > maxPasswordBytes {
		return ErrPasswordTooLong
	}

	var hasUpper, hasSymbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}
	if !hasUpper || !hasSymbol {
		return ErrWeakPassword
	}
	return nil
}
