package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := NotFound("Property")
	want := "NOT_FOUND: Property not found"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	cause := errors.New("connection refused")
	wrapped := Internal("Failed to create booking", cause)
	want = "INTERNAL_ERROR: Failed to create booking (caused by: connection refused)"
	if wrapped.Error() != want {
		t.Errorf("expected %q, got %q", want, wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("feed returned HTML")
	err := Upstream("Failed to fetch calendar feed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}

	wrapped := fmt.Errorf("sync failed: %w", err)
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find the AppError")
	}
	if appErr.Code != CodeUpstream {
		t.Errorf("expected code %s, got %s", CodeUpstream, appErr.Code)
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("Booking"), http.StatusNotFound},
		{"invalid input", InvalidInput("no calendar URL configured"), http.StatusBadRequest},
		{"validation", Validation("bad payload", nil), http.StatusUnprocessableEntity},
		{"unauthorized", Unauthorized("missing token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not the owner"), http.StatusForbidden},
		{"conflict", Conflict("username taken"), http.StatusConflict},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
		{"upstream", Upstream("feed unreachable", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("already exists")
	if got := AsAppError(appErr); got != appErr {
		t.Error("expected AsAppError to return the same AppError")
	}

	plain := errors.New("something broke")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain errors to convert to %s, got %s", CodeInternal, converted.Code)
	}
	if !errors.Is(converted, plain) {
		t.Error("expected converted error to wrap the original")
	}
}

func TestWithDetails(t *testing.T) {
	err := NotFoundWithID("Property", "662f0c")
	if err.Details["id"] != "662f0c" {
		t.Errorf("expected id detail, got %v", err.Details)
	}
}
