package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAuthConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"unauthorized", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("Permission denied: project:read required"), ErrCodeForbidden, http.StatusForbidden},
		{"token expired", TokenExpired("token has expired"), ErrCodeTokenExpired, http.StatusUnauthorized},
		{"invalid token", InvalidToken("invalid token"), ErrCodeInvalidToken, http.StatusUnauthorized},
		{"token revoked", TokenRevoked("token has been revoked"), ErrCodeTokenRevoked, http.StatusUnauthorized},
		{"mfa required", MFARequired("a verification code is required"), ErrCodeMFARequired, http.StatusUnauthorized},
		{"invalid mfa code", InvalidMFACode("invalid verification code"), ErrCodeInvalidMFACode, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable {
				t.Errorf("%s should not be retryable", tc.code)
			}
		})
	}
}

func TestAppError_CauseChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ExternalServiceError("oauth provider unreachable").WithCause(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	if !err.Retryable {
		t.Error("external service errors should be retryable")
	}
}

func TestConstructorsCarryMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		message string
	}{
		{"not found", NotFound("api key k-1 not found"), "api key k-1 not found"},
		{"invalid input", InvalidInput("api key name is required"), "api key name is required"},
		{"invalid config", InvalidConfig("token: signing secret is required"), "token: signing secret is required"},
		{"internal", Internal("generate totp secret"), "generate totp secret"},
		{"store error", StoreError("load token metadata"), "load token metadata"},
		{"timeout", Timeout("token exchange timed out"), "token exchange timed out"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, tc.err.Message)
			}
			if !strings.Contains(tc.err.Error(), tc.message) {
				t.Errorf("expected message in Error(), got %q", tc.err.Error())
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", TokenExpired(""))
	if !IsCode(err, ErrCodeTokenExpired) {
		t.Error("expected IsCode to match through wrapping")
	}
	if IsCode(err, ErrCodeInvalidToken) {
		t.Error("expected IsCode to reject a different code")
	}
	if IsCode(stderrors.New("plain"), ErrCodeInvalidToken) {
		t.Error("expected IsCode to reject non-AppError")
	}
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(Forbidden(""))
	if !ok || appErr.Code != ErrCodeForbidden {
		t.Fatalf("expected forbidden AppError, got %v (%v)", appErr, ok)
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("expected plain error to not convert")
	}
}

func TestToResponse(t *testing.T) {
	err := Forbidden("").WithDetail("permission", "project:write")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN, got %s", resp.Error.Code)
	}
	if resp.Error.Details["permission"] != "project:write" {
		t.Errorf("expected permission detail, got %v", resp.Error.Details)
	}
}
