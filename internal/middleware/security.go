package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityConfig holds the tunable response headers. Everything else the API
// sends is fixed: it only ever serves JSON and is never framed.
type SecurityConfig struct {
	// HSTSMaxAge enables Strict-Transport-Security when positive.
	HSTSMaxAge     time.Duration
	ReferrerPolicy string
}

func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:     365 * 24 * time.Hour,
		ReferrerPolicy: "no-referrer",
	}
}

// SecurityHeaders sets the hardening headers for patient data responses.
func SecurityHeaders(config SecurityConfig) gin.HandlerFunc {
	headers := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
	}
	if config.ReferrerPolicy != "" {
		headers = append(headers, [2]string{"Referrer-Policy", config.ReferrerPolicy})
	}
	if seconds := int64(config.HSTSMaxAge / time.Second); seconds > 0 {
		headers = append(headers, [2]string{
			"Strict-Transport-Security",
			"max-age=" + strconv.FormatInt(seconds, 10) + "; includeSubDomains",
		})
	}

	return func(c *gin.Context) {
		for _, h := range headers {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
