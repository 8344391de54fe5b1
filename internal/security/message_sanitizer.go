package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizerService はお問い合わせ本文のサニタイズ機能のインターフェースを定義する。
// お問い合わせメッセージの保存前に使用される。
type MessageSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去し、プレーンテキストを返す。
	// お問い合わせフォームの本文はHTMLを許可しないため、StrictPolicyを適用する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去し、テキストノードのみを残す。
func NewMessageSanitizer() *messageSanitizer {
	return &messageSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

var _ MessageSanitizerService = (*messageSanitizer)(nil)

// Sanitize は入力テキストから全てのHTMLタグを除去する。
// タグ除去後の前後空白もあわせて取り除く。
func (s *messageSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
