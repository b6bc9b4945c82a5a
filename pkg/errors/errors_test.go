package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInvalidInput, http.StatusTeapot, "x"), http.StatusTeapot},
		{"wrapped app error", fmt.Errorf("outer: %w", Newf(ErrTimeout, http.StatusGatewayTimeout, "after %ds", 3)), http.StatusGatewayTimeout},
		{"not found", fmt.Errorf("lookup: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"invalid config", ErrInvalidConfig, http.StatusBadRequest},
		{"store", StoreError("redis read", cause), http.StatusServiceUnavailable},
		{"unknown", cause, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Fatalf("HTTPStatusCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStoreErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := StoreError("postgres write", cause)
	if !errors.Is(err, ErrStore) || !errors.Is(err, cause) {
		t.Fatalf("err = %v does not wrap both sentinel and cause", err)
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "too many documents: %d", 5)
	if got, want := err.Error(), "invalid input: too many documents: 5"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("AppError does not unwrap to its sentinel")
	}
}
