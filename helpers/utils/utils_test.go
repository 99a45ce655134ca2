package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	id := GenerateUUID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, GenerateUUID())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("expand", "123 main st")
	assert.True(t, strings.HasPrefix(a, "sha256:"))
	assert.Equal(t, a, Fingerprint("expand", "123 main st"))
	// Phần tách biệt, không ghép chuỗi
	assert.NotEqual(t, Fingerprint("ab", "c"), Fingerprint("a", "bc"))
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("parse", "v1", "781 franklin ave")
	assert.True(t, strings.HasPrefix(key, "parse:v1:sha256:"))
	assert.NotEqual(t, key, CacheKey("parse", "v2", "781 franklin ave"))
}
