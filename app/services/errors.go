package services

import "errors"

var (
	ErrEmptyInput       = errors.New("địa chỉ không được để trống")
	ErrUnknownField     = errors.New("trường so sánh không hợp lệ")
	ErrUnknownOperation = errors.New("thao tác không hợp lệ")
	ErrJobNotFound      = errors.New("job không tồn tại")
	ErrTooManyItems     = errors.New("số lượng địa chỉ vượt quá giới hạn")
	// ErrBlockingDisabled không cấu hình blocking index (Meilisearch)
	ErrBlockingDisabled = errors.New("blocking index chưa được cấu hình")
)
