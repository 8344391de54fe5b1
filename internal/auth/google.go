package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// defaultTokenInfoURL はGoogleのIDトークン検証エンドポイント。
const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleUserInfo は検証済みのGoogle IDトークンから抽出したユーザー情報。
type GoogleUserInfo struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// GoogleVerifierConfig はGoogleVerifierの設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
}

// GoogleVerifier はGoogle Identity ServicesのIDトークン（credential）を
// tokeninfoエンドポイントで検証する。
type GoogleVerifier struct {
	config     GoogleVerifierConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewGoogleVerifier はGoogleVerifierを生成する。
func NewGoogleVerifier(config GoogleVerifierConfig) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultTokenInfoURL
	}
	return &GoogleVerifier{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// tokenInfoResponse はtokeninfoエンドポイントのレスポンス。
// 数値フィールドは文字列として返ってくる。
type tokenInfoResponse struct {
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Exp     string `json:"exp"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verify はcredential（Google IDトークン）を検証し、ユーザー情報を返す。
// audience（クライアントID）と有効期限を検証する。
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*GoogleUserInfo, error) {
	if credential == "" {
		return nil, fmt.Errorf("credential is empty")
	}

	reqURL := v.config.TokenInfoURL + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token verification failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}

	if info.Sub == "" {
		return nil, fmt.Errorf("empty sub in tokeninfo response")
	}
	if info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("token audience mismatch")
	}
	if exp, err := strconv.ParseInt(info.Exp, 10, 64); err != nil || v.now().Unix() >= exp {
		return nil, fmt.Errorf("token is expired")
	}

	return &GoogleUserInfo{
		GoogleID: info.Sub,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	}, nil
}

// compile-time interface check
var _ CredentialVerifier = (*GoogleVerifier)(nil)
