package portal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// 永続化キー。セッションはこの2キーのみで構成される。
const (
	// StorageKeyToken は認証トークンの保存キー。
	StorageKeyToken = "cityadmin_token"
	// StorageKeyUser はシリアライズ済みユーザー情報の保存キー。
	StorageKeyUser = "cityadmin_user"
)

// Storage はセッション情報のキーバリュー永続化を抽象化する。
type Storage interface {
	// Get はキーに対応する値を返す。存在しない場合は空文字列とfalseを返す。
	Get(key string) (string, bool)
	// Set はキーに値を保存する。
	Set(key, value string) error
	// Delete はキーを削除する。存在しないキーの削除はエラーにしない。
	Delete(key string) error
}

// MemoryStorage はメモリ上のStorage実装。テストおよび一時セッション用。
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage はMemoryStorageを生成する。
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get はキーに対応する値を返す。
func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set はキーに値を保存する。
func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete はキーを削除する。
func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// FileStorage はJSONファイルに保存するStorage実装。
// CLIの複数回起動をまたいでセッションを維持するために使う。
type FileStorage struct {
	mu   sync.Mutex
	path string
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage は指定パスのファイルを使うFileStorageを生成する。
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultSessionPath はセッションファイルのデフォルトパスを返す。
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "cityadmin", "session.json"), nil
}

// load はファイルの内容を読み込む。ファイルが存在しない場合は空のマップを返す。
func (s *FileStorage) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		// 壊れたファイルは空扱いにして次回のSetで上書きする。
		return map[string]string{}, nil
	}
	return values, nil
}

// save はマップ全体をファイルに書き出す。
func (s *FileStorage) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Get はキーに対応する値を返す。
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

// Set はキーに値を保存する。
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Delete はキーを削除する。
func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}
