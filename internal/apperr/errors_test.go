package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crehub/news-digest/internal/apperr"
	"github.com/labstack/echo/v4"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("at must be RFC3339")

	if err.Error() != "at must be RFC3339" {
		t.Errorf("expected 'at must be RFC3339', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("bad month")
	err := apperr.NewValidationWrap("invalid run time", inner)

	if err.Error() != "invalid run time: bad month" {
		t.Errorf("expected 'invalid run time: bad month', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestUnauthorizedError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("trigger: %w", apperr.NewUnauthorized("invalid cron secret"))

	var ue *apperr.UnauthorizedError
	if !errors.As(err, &ue) {
		t.Fatal("errors.As should find UnauthorizedError through wrapping")
	}
	if ue.Message != "invalid cron secret" {
		t.Errorf("expected 'invalid cron secret', got %q", ue.Message)
	}
}

func TestConflictError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("lock held")
	err := apperr.NewConflictWrap("run already in progress", inner)

	if err.Error() != "run already in progress: lock held" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestGlobalErrorHandler_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperr.NewValidation("bad"), http.StatusBadRequest},
		{"unauthorized", apperr.NewUnauthorized("nope"), http.StatusUnauthorized},
		{"conflict", apperr.NewConflictWrap("busy", nil), http.StatusConflict},
		{"echo http error", echo.NewHTTPError(http.StatusNotFound, "missing"), http.StatusNotFound},
		{"plain", fmt.Errorf("db down"), http.StatusInternalServerError},
	}

	handler := apperr.GlobalErrorHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

			handler(tt.err, c)

			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}
