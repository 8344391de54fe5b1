package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cityadmin/portal/internal/model"
)

// AdminUserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type AdminUserServiceInterface interface {
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, userID string, role model.Role) error
	Invite(ctx context.Context, name, email string, role model.Role) (*model.User, error)
	Delete(ctx context.Context, userID string) error
}

// AdminUserHandler はユーザー管理のHTTPハンドラー。
type AdminUserHandler struct {
	service AdminUserServiceInterface
}

// NewAdminUserHandler はAdminUserHandlerを生成する。
func NewAdminUserHandler(service AdminUserServiceInterface) *AdminUserHandler {
	return &AdminUserHandler{service: service}
}

// updateRoleRequest はロール変更リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// inviteUserRequest はユーザー招待リクエストのボディ。
type inviteUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// userListResponse はユーザー一覧のAPIレスポンス。
type userListResponse struct {
	Users []userResponse `json:"users"`
}

// ListUsers は登録ユーザーの一覧を返す。
// GET /admin/users
func (h *AdminUserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := userListResponse{Users: make([]userResponse, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, toUserResponse(&users[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdateRole はユーザーのロールを変更する。
// PUT /admin/users/{id}/role
func (h *AdminUserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if err := h.service.UpdateRole(r.Context(), userID, model.Role(req.Role)); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// InviteUser はメールアドレス指定でユーザーを事前登録する。
// POST /admin/users/invite
func (h *AdminUserHandler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req inviteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	user, err := h.service.Invite(r.Context(), req.Name, req.Email, model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"user":    toUserResponse(user),
	})
}

// DeleteUser はユーザーを削除する。
// DELETE /admin/users/{id}
func (h *AdminUserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}
