package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cityadmin/portal/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	exchangeCredentialFn func(ctx context.Context, credential string) (string, *model.User, error)
}

func (m *mockAuthService) ExchangeCredential(ctx context.Context, credential string) (string, *model.User, error) {
	if m.exchangeCredentialFn != nil {
		return m.exchangeCredentialFn(ctx, credential)
	}
	return "", nil, nil
}

// --- POST /auth/google テスト ---

func TestAuthHandler_GoogleLogin_Success(t *testing.T) {
	svc := &mockAuthService{
		exchangeCredentialFn: func(ctx context.Context, credential string) (string, *model.User, error) {
			if credential != "google-id-token" {
				t.Errorf("credential = %q, want %q", credential, "google-id-token")
			}
			return "session-token", &model.User{
				ID:    "user-1",
				Email: "staff@stadt.de",
				Name:  "Staff",
				Role:  model.RoleAdmin,
			}, nil
		},
	}
	h := NewAuthHandler(svc, testCollector(t))

	body, _ := json.Marshal(map[string]string{"credential": "google-id-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/google", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.GoogleLogin(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp googleLoginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Token != "session-token" {
		t.Errorf("token = %q, want %q", resp.Token, "session-token")
	}
	if resp.User.Role != "admin" {
		t.Errorf("role = %q, want %q", resp.User.Role, "admin")
	}
}

func TestAuthHandler_GoogleLogin_InvalidCredential(t *testing.T) {
	svc := &mockAuthService{
		exchangeCredentialFn: func(ctx context.Context, credential string) (string, *model.User, error) {
			return "", nil, model.NewInvalidCredentialError()
		},
	}
	h := NewAuthHandler(svc, testCollector(t))

	body, _ := json.Marshal(map[string]string{"credential": "bad-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/google", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.GoogleLogin(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != model.ErrCodeInvalidCredential {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeInvalidCredential)
	}
}

func TestAuthHandler_GoogleLogin_MissingCredential(t *testing.T) {
	exchangeCalled := false
	svc := &mockAuthService{
		exchangeCredentialFn: func(ctx context.Context, credential string) (string, *model.User, error) {
			exchangeCalled = true
			return "", nil, nil
		},
	}
	h := NewAuthHandler(svc, testCollector(t))

	body, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/auth/google", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.GoogleLogin(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if exchangeCalled {
		t.Error("service should not be called for empty credential")
	}
}

func TestAuthHandler_GoogleLogin_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testCollector(t))

	req := httptest.NewRequest(http.MethodPost, "/auth/google", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.GoogleLogin(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
