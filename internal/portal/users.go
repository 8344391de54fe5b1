package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cityadmin/portal/internal/model"
)

// ErrConfirmationDeclined は確認ステップで操作が取り消されたことを表す。
// このエラーが返った場合、変更系のHTTPリクエストは発行されていない。
var ErrConfirmationDeclined = errors.New("操作がキャンセルされました")

// Confirmer は破壊的操作の実行前確認を抽象化する。
type Confirmer interface {
	// Confirm はプロンプトを提示し、利用者が承認した場合にtrueを返す。
	Confirm(prompt string) bool
}

// ConfirmerFunc は関数をConfirmerとして使うためのアダプタ。
type ConfirmerFunc func(prompt string) bool

// Confirm はConfirmerインターフェースを実装する。
func (f ConfirmerFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// PortalUser は管理対象ユーザーのワイヤ表現。
type PortalUser struct {
	ID      string     `json:"id"`
	Email   string     `json:"email"`
	Name    string     `json:"name"`
	Picture string     `json:"picture"`
	Role    model.Role `json:"role"`
}

// userListResponse はユーザー一覧エンドポイントのレスポンス。
type userListResponse struct {
	Users []PortalUser `json:"users"`
}

// ListUsers は管理対象ユーザーの一覧を取得する。
func (c *Client) ListUsers(ctx context.Context) ([]PortalUser, error) {
	var resp userListResponse
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Users == nil {
		resp.Users = []PortalUser{}
	}
	return resp.Users, nil
}

// ChangeUserRole は確認を経てユーザーの権限を変更し、更新後の一覧を返す。
// 確認が拒否された場合はリクエストを発行せずErrConfirmationDeclinedを返す。
func (c *Client) ChangeUserRole(ctx context.Context, confirmer Confirmer, userID string, role model.Role) ([]PortalUser, error) {
	prompt := fmt.Sprintf("ユーザー %s の権限を %s に変更しますか?", userID, role)
	if !confirmer.Confirm(prompt) {
		return nil, ErrConfirmationDeclined
	}

	body := map[string]string{"role": string(role)}
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+userID+"/role", body, nil); err != nil {
		return nil, err
	}
	return c.ListUsers(ctx)
}

// inviteResponse は招待エンドポイントのレスポンス。
type inviteResponse struct {
	Success bool       `json:"success"`
	User    PortalUser `json:"user"`
}

// InviteUser は新しいユーザーを招待し、更新後の一覧を返す。
func (c *Client) InviteUser(ctx context.Context, name, email string, role model.Role) ([]PortalUser, error) {
	if email == "" {
		return nil, errors.New("メールアドレスを入力してください")
	}

	body := map[string]string{"name": name, "email": email, "role": string(role)}
	var resp inviteResponse
	if err := c.do(ctx, http.MethodPost, "/admin/users/invite", body, &resp); err != nil {
		return nil, err
	}
	return c.ListUsers(ctx)
}

// DeleteUser は確認を経てユーザーを削除し、更新後の一覧を返す。
// 確認が拒否された場合はリクエストを発行せずErrConfirmationDeclinedを返す。
func (c *Client) DeleteUser(ctx context.Context, confirmer Confirmer, userID string) ([]PortalUser, error) {
	prompt := fmt.Sprintf("ユーザー %s を削除しますか? この操作は取り消せません。", userID)
	if !confirmer.Confirm(prompt) {
		return nil, ErrConfirmationDeclined
	}

	if err := c.do(ctx, http.MethodDelete, "/admin/users/"+userID, nil, nil); err != nil {
		return nil, err
	}
	return c.ListUsers(ctx)
}
