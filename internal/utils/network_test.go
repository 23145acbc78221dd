package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		realIP    string
		forwarded string
		expected  string
	}{
		{"x-real-ip wins", "203.0.113.7", "198.51.100.1", "203.0.113.7"},
		{"first forwarded", "", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"invalid headers fall back", "garbage", "also-garbage", "192.0.2.10"},
		{"direct", "", "", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Request.RemoteAddr = "192.0.2.10:5555"
			if tt.realIP != "" {
				c.Request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				c.Request.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.expected, GetRealIP(c))
		})
	}
}

func TestGenerateServiceSecrets(t *testing.T) {
	jwtSecret, webhookSecret, err := GenerateServiceSecrets()
	require.NoError(t, err)

	assert.Len(t, jwtSecret, 64)
	assert.Len(t, webhookSecret, 64)
	assert.NotEqual(t, jwtSecret, webhookSecret)
}
