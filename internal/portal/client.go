// Package portal はポータルAPIのクライアントSDKを提供する。
//
// CLIや他のツールからバックエンドAPIを利用するための薄いクライアントで、
// セッション管理・市民サマリー取得・ユーザー管理の各操作を提供する。
// 再試行は行わない。すべての失敗は呼び出し側に返し、利用者に提示する。
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cityadmin/portal/internal/metrics"
)

// DefaultBaseURL はAPIベースURLのデフォルト値。
const DefaultBaseURL = "http://localhost:8000"

// baseURLEnvKey はAPIベースURLを上書きする環境変数名。
const baseURLEnvKey = "CITYADMIN_API_URL"

// TransportError はサーバーから応答が得られなかったことを表す。
// DNS解決失敗、接続拒否、タイムアウトなどが該当する。
type TransportError struct {
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *TransportError) Error() string {
	return fmt.Sprintf("no response received from server: %v", e.Err)
}

// Unwrap は元のエラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError はサーバーがエラーレスポンスを返したことを表す。
// メッセージはレスポンスボディから抽出する。抽出できない場合は汎用メッセージになる。
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned an error (status %d): %s", e.StatusCode, e.Message)
}

// TokenProvider はリクエストに付与するBearerトークンを返す。
// トークンがない場合は空文字列を返す。
type TokenProvider func() string

// Client はポータルAPIのHTTPクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokenFn    TokenProvider
	collector  metrics.MetricsCollector
}

// ClientOption はClientの生成オプション。
type ClientOption func(*Client)

// WithHTTPClient はHTTPクライアントを差し替える。テスト用。
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenProvider はBearerトークンの供給元を設定する。
func WithTokenProvider(fn TokenProvider) ClientOption {
	return func(c *Client) {
		c.tokenFn = fn
	}
}

// WithMetrics はフォールバック実行などを記録するコレクターを設定する。
func WithMetrics(collector metrics.MetricsCollector) ClientOption {
	return func(c *Client) {
		c.collector = collector
	}
}

// NewClient はClientを生成する。
// baseURLが空の場合は環境変数CITYADMIN_API_URL、それも未設定ならローカルアドレスを使用する。
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = os.Getenv(baseURLEnvKey)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は設定済みのAPIベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiError はサーバーの統一エラーレスポンス。
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do はHTTPリクエストを実行し、レスポンスボディをoutにデコードする。
// outがnilの場合はボディを読み捨てる。
// 2xx以外のステータスはServerError、応答が得られない場合はTransportErrorを返す。
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeServerError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeServerError はエラーレスポンスのボディからメッセージを抽出する。
// ボディが統一エラーフォーマットでない場合は汎用メッセージにフォールバックする。
func decodeServerError(resp *http.Response) *ServerError {
	serverErr := &ServerError{
		StatusCode: resp.StatusCode,
		Message:    "リクエストの処理に失敗しました",
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return serverErr
	}
	var body apiError
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		serverErr.Code = body.Code
		serverErr.Message = body.Message
	}
	return serverErr
}
