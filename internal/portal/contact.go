package portal

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ContactInput は問い合わせフォームの入力。
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// validate は送信前のクライアント側検証を行う。
// 検証エラーの場合、ネットワーク呼び出しは行われない。
func (in ContactInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("お名前を入力してください")
	}
	if !strings.Contains(in.Email, "@") {
		return errors.New("メールアドレスの形式が正しくありません")
	}
	if strings.TrimSpace(in.Message) == "" {
		return errors.New("お問い合わせ内容を入力してください")
	}
	return nil
}

// contactResponse は問い合わせ送信エンドポイントのレスポンス。
type contactResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// SubmitContact は問い合わせを送信し、受付IDを返す。
// 入力が不正な場合はリクエストを発行せず検証エラーを返す。
func (c *Client) SubmitContact(ctx context.Context, in ContactInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	body := map[string]string{
		"name":    in.Name,
		"email":   in.Email,
		"subject": in.Subject,
		"message": in.Message,
	}
	var resp contactResponse
	if err := c.do(ctx, http.MethodPost, "/contact", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}
