package errors

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "configuration is invalid",
			},
			want: "config: configuration is invalid",
		},
		{
			name: "upstream error with status",
			appError: &AppError{
				Type:       ErrTypeUpstream,
				Message:    "device busy",
				StatusCode: 409,
			},
			want: "upstream: device busy: status=409",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeTransport,
				Message: "request failed",
				Cause:   errors.New("connection refused"),
			},
			want: "transport: request failed: cause=connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appError.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := TransportError("request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"auth unavailable", AuthUnavailableError("no token"), ErrTypeAuthUnavailable},
		{"auth exchange", AuthExchangeError("rejected", nil), ErrTypeAuthExchange},
		{"transport", TransportError("timeout", nil), ErrTypeTransport},
		{"upstream", UpstreamError(502, "bad gateway"), ErrTypeUpstream},
		{"validation", ValidationError("bad input"), ErrTypeValidation},
		{"config", ConfigError("missing key"), ErrTypeConfig},
		{"not found", NotFoundError("device"), ErrTypeNotFound},
		{"internal", InternalError("boom", nil), ErrTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if !IsType(tt.err, tt.wantType) {
				t.Errorf("IsType failed for %s", tt.wantType)
			}
		})
	}
}

func TestIsType_NonAppError(t *testing.T) {
	if IsType(errors.New("plain"), ErrTypeTransport) {
		t.Error("plain errors should not match any type")
	}
	if IsType(nil, ErrTypeTransport) {
		t.Error("nil should not match any type")
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(UpstreamError(500, "oops")); got != ErrTypeUpstream {
		t.Errorf("expected upstream, got %s", got)
	}
	if got := GetType(errors.New("plain")); got != ErrTypeInternal {
		t.Errorf("expected internal for plain error, got %s", got)
	}
	if got := GetType(nil); got != "" {
		t.Errorf("expected empty type for nil, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(UpstreamError(404, "missing")); got != 404 {
		t.Errorf("expected 404, got %d", got)
	}
	if got := HTTPStatus(errors.New("plain")); got != 0 {
		t.Errorf("expected 0 for plain error, got %d", got)
	}
}
