package validator

import (
	"net/mail"
	"regexp"
	"strings"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// NormalizeEmail は前後の空白を除いて小文字にする
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone は空白・ハイフン・括弧を取り除く
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

func IsEmailLike(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	//"Name <a@b>" 形式は受け付けない
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func IsPhoneLike(phone string) bool {
	return phoneRe.MatchString(phone)
}
