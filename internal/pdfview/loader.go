package pdfview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cityadmin/portal/internal/security"
)

// DocumentLoader は提出書類PDFを市民提供のURLから取得する。
// URLは外部入力のため、SSRFガード付きクライアントで取得する。
type DocumentLoader struct {
	httpClient *http.Client
	validate   func(rawURL string) error
	maxSize    int64
}

// LoaderOption はDocumentLoaderの生成オプション。
type LoaderOption func(*DocumentLoader)

// WithClient は取得に使うHTTPクライアントを差し替える。テスト用。
func WithClient(hc *http.Client) LoaderOption {
	return func(l *DocumentLoader) {
		l.httpClient = hc
	}
}

// WithValidator はURL検証関数を差し替える。テスト用。
func WithValidator(validate func(rawURL string) error) LoaderOption {
	return func(l *DocumentLoader) {
		l.validate = validate
	}
}

// NewDocumentLoader はDocumentLoaderを生成する。
func NewDocumentLoader(timeout time.Duration, maxSize int64, opts ...LoaderOption) *DocumentLoader {
	guard := security.NewSSRFGuard()
	l := &DocumentLoader{
		httpClient: guard.NewSafeClient(timeout, maxSize),
		validate:   guard.ValidateURL,
		maxSize:    maxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fetch はURLからドキュメントを取得する。
// サイズ上限を超えるドキュメントはエラーになる。
func (l *DocumentLoader) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := l.validate(rawURL); err != nil {
		return nil, fmt.Errorf("document URL rejected: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch document: status %d", resp.StatusCode)
	}

	// 上限+1バイトまで読んで超過を検出する
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("document exceeds size limit of %d bytes", l.maxSize)
	}
	return data, nil
}
