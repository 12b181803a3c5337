package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookingID(t *testing.T) {
	day := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := GenerateBookingID(day)
		require.NoError(t, err)
		assert.Regexp(t, BookingIDPattern, id)
		assert.Contains(t, id, "BK-20250601-")
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1, "ids should be random")
}

func TestGenerateIHCCode(t *testing.T) {
	code, err := GenerateIHCCode()
	require.NoError(t, err)
	assert.Regexp(t, IHCCodePattern, code)
}

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret(32)
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	jwtSecret, staffKey, err := GenerateServerSecrets()
	require.NoError(t, err)
	assert.Len(t, jwtSecret, 64)
	assert.Len(t, staffKey, 48)
	assert.NotEqual(t, jwtSecret, staffKey)
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Acme Airlines", "Acme Airlines"},
		{"trims", "  Street 1  ", "Street 1"},
		{"strips tags", "<b>Ana</b><script>alert(1)</script>", "Ana"},
		{"keeps ampersand", "Smith & Co", "Smith & Co"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input))
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		info := ParseUserAgent("")
		assert.Equal(t, "unknown", info.DeviceType)
		assert.Equal(t, "unknown", info.Platform)
	})

	t.Run("desktop chrome on windows", func(t *testing.T) {
		info := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Equal(t, "desktop", info.DeviceType)
		assert.Equal(t, "Chrome", info.Browser)
		assert.Equal(t, "windows", info.Platform)
		assert.False(t, info.IsBot)
	})

	t.Run("android phone", func(t *testing.T) {
		info := ParseUserAgent("Mozilla/5.0 (Linux; Android 12; Pixel 6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")
		assert.Equal(t, "mobile", info.DeviceType)
		assert.Equal(t, "android", info.Platform)
	})
}

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"x-real-ip public", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded skips private", map[string]string{"X-Forwarded-For": "10.0.0.2, 198.51.100.4"}, "198.51.100.4"},
		{"forwarded all private", map[string]string{"X-Forwarded-For": "10.0.0.2, 192.168.1.1"}, "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}
