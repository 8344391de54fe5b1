// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cityadmin/portal/internal/metrics"
	"github.com/cityadmin/portal/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// ExchangeCredential はGoogleのIDトークンを検証し、セッショントークンを発行する。
	ExchangeCredential(ctx context.Context, credential string) (string, *model.User, error)
}

// AuthHandler はGoogleログインのHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
	}
}

// googleLoginRequest はGoogleログインリクエストのボディ。
type googleLoginRequest struct {
	Credential string `json:"credential"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Role    string `json:"role"`
}

// googleLoginResponse はGoogleログイン成功時のレスポンス。
type googleLoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// GoogleLogin はGoogle Identity ServicesのIDトークンを受け取り、
// セッショントークンを発行する。
// POST /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.Credential == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidCredentialError())
		return
	}

	token, user, err := h.service.ExchangeCredential(r.Context(), req.Credential)
	if err != nil {
		h.collector.RecordLogin(metrics.LoginOutcomeFailure)

		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredential {
			writeAPIErrorResponse(w, http.StatusUnauthorized, apiErr)
			return
		}
		slog.Error("google login failed", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	h.collector.RecordLogin(metrics.LoginOutcomeSuccess)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(googleLoginResponse{
		Success: true,
		Token:   token,
		User:    toUserResponse(user),
	})
}

// toUserResponse はmodel.UserをAPIレスポンス形式に変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Picture: u.Picture,
		Role:    string(u.Role),
	}
}
