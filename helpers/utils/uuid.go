package utils

import "github.com/google/uuid"

// GenerateUUID tạo UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}
