package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crehub/news-digest/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestSharedSecret(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"not configured", "", "anything", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = apperr.GlobalErrorHandler()
			e.POST("/cron", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}, SharedSecret(tt.configured))

			req := httptest.NewRequest(http.MethodPost, "/cron", nil)
			if tt.header != "" {
				req.Header.Set(SecretHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
