package repository

import "errors"

var (
	//対象が存在しない
	ErrNotFound = errors.New("not found")
	//unique制約違反（phone/emailなど）
	ErrDuplicate = errors.New("duplicate")
)
