package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultCacheKey(t *testing.T) {
	tests := []struct {
		name       string
		questionID string
		expected   string
	}{
		{"objectid format", "507f1f77bcf86cd799439011", "result:507f1f77bcf86cd799439011"},
		{"simple id", "123", "result:123"},
		{"empty string", "", "result:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResultCacheKey(tt.questionID))
		})
	}
}

func TestRetryCacheKey(t *testing.T) {
	assert.Equal(t, "retry:507f1f77bcf86cd799439011", RetryCacheKey("507f1f77bcf86cd799439011"))
	assert.Equal(t, "retry:", RetryCacheKey(""))
}
