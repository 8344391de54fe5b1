package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cityadmin/portal/internal/model"
)

// ErrInvalidCredentials はデモ認証情報が一致しなかったことを表す。
var ErrInvalidCredentials = errors.New("ユーザー名またはパスワードが正しくありません")

// googleExchangeTimeout はOAuth交換呼び出しのタイムアウト。
// 他のAPI呼び出しと異なり、認証だけは無期限に待たせない。
const googleExchangeTimeout = 10 * time.Second

// demoCredential はローカル検証用のデモ認証情報。
type demoCredential struct {
	password string
	name     string
	role     model.Role
}

// demoCredentials は開発・デモ環境向けの固定認証情報。
// バックエンドへの通信なしにローカルで検証する。
var demoCredentials = map[string]demoCredential{
	"admin": {password: "admin", name: "デモ管理者", role: model.RoleAdmin},
	"staff": {password: "staff", name: "デモ職員", role: model.RoleUser},
}

// SessionStore はクライアント側のセッション状態を管理する。
// 状態は常にStorageの2キー(トークンとユーザー情報)と同期する。
type SessionStore struct {
	client  *Client
	storage Storage

	mu    sync.Mutex
	token string
	user  *model.User
}

// NewSessionStore はSessionStoreを生成し、Storageから既存セッションを復元する。
// 復元に失敗した場合は未認証状態で開始する。
func NewSessionStore(client *Client, storage Storage) *SessionStore {
	s := &SessionStore{client: client, storage: storage}
	s.restore()
	return s
}

// restore はStorageからセッション状態を読み戻す。
// どちらかのキーが欠けている、またはユーザー情報が壊れている場合は復元しない。
func (s *SessionStore) restore() {
	token, ok := s.storage.Get(StorageKeyToken)
	if !ok || token == "" {
		return
	}
	rawUser, ok := s.storage.Get(StorageKeyUser)
	if !ok || rawUser == "" {
		return
	}
	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return
	}
	s.token = token
	s.user = &user
}

// persist はトークンとユーザー情報をStorageに書き込み、メモリ状態を更新する。
// 永続化に失敗した場合はメモリ状態を変更しない。
func (s *SessionStore) persist(token string, user *model.User) error {
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.storage.Set(StorageKeyToken, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	if err := s.storage.Set(StorageKeyUser, string(rawUser)); err != nil {
		return fmt.Errorf("failed to persist user: %w", err)
	}
	s.token = token
	s.user = user
	return nil
}

// Login はデモ認証情報でログインする。
// 認証情報が一致しない場合はErrInvalidCredentialsを返し、状態は変更しない。
func (s *SessionStore) Login(username, password string) error {
	cred, ok := demoCredentials[username]
	if !ok || cred.password != password {
		return ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := &model.User{
		ID:        uuid.NewString(),
		Email:     username + "@demo.local",
		Name:      cred.name,
		Role:      cred.role,
		LastLogin: time.Now(),
	}
	return s.persist("demo-"+uuid.NewString(), user)
}

// googleLoginResponse は認証交換エンドポイントのレスポンス。
type googleLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    struct {
		ID      string     `json:"id"`
		Email   string     `json:"email"`
		Name    string     `json:"name"`
		Picture string     `json:"picture"`
		Role    model.Role `json:"role"`
	} `json:"user"`
}

// LoginWithGoogle はGoogleの認証情報をバックエンドでセッショントークンに交換する。
// 失敗した場合はStorageに一切書き込まず、未認証状態のまま返す。
func (s *SessionStore) LoginWithGoogle(ctx context.Context, credential string) error {
	if credential == "" {
		return errors.New("認証情報が空です")
	}

	ctx, cancel := context.WithTimeout(ctx, googleExchangeTimeout)
	defer cancel()

	var resp googleLoginResponse
	err := s.client.do(ctx, http.MethodPost, "/auth/google", map[string]string{"credential": credential}, &resp)
	if err != nil {
		return fmt.Errorf("failed to exchange credential: %w", err)
	}
	if resp.Token == "" {
		return errors.New("サーバーからトークンが返されませんでした")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := &model.User{
		ID:      resp.User.ID,
		Email:   resp.User.Email,
		Name:    resp.User.Name,
		Picture: resp.User.Picture,
		Role:    resp.User.Role,
	}
	return s.persist(resp.Token, user)
}

// Logout はセッションを破棄する。認証フラグとトークンの両方がクリアされる。
func (s *SessionStore) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(StorageKeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if err := s.storage.Delete(StorageKeyUser); err != nil {
		return fmt.Errorf("failed to clear user: %w", err)
	}
	s.token = ""
	s.user = nil
	return nil
}

// IsAuthenticated は認証済みかどうかを返す。
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// IsAdmin は現在のユーザーが管理者かどうかを返す。未認証の場合はfalse。
func (s *SessionStore) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.IsAdmin()
}

// AuthToken は現在のセッショントークンを返す。未認証の場合は空文字列。
func (s *SessionStore) AuthToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// CurrentUser は現在のユーザーのコピーを返す。未認証の場合はnil。
func (s *SessionStore) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
