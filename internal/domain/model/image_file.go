package model

import "io"

// ImageFile はアップロードされた画像1枚（multipartなどから作る）
type ImageFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}
