// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, case, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeCaseNotFound      = "CASE_NOT_FOUND"
	ErrCodeAuditNotFound     = "AUDIT_NOT_FOUND"
	ErrCodeInvalidRole       = "INVALID_ROLE"
	ErrCodeInvalidCaseState  = "INVALID_CASE_STATE"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
)

// NewInvalidCredentialError はGoogle認証情報の検証失敗エラーを生成する。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "Google認証情報の検証に失敗しました。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作には管理者権限が必要です。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "validation",
		Action:   "ユーザー一覧を再読み込みしてください。",
	}
}

// NewCaseNotFoundError はケースが見つからない場合のエラーを生成する。
func NewCaseNotFoundError(caseID string) *APIError {
	return &APIError{
		Code:     ErrCodeCaseNotFound,
		Message:  fmt.Sprintf("指定されたケースが見つかりません: %s", caseID),
		Category: "case",
		Action:   "ケースIDを確認してください。",
	}
}

// NewAuditNotFoundError は監査ログが存在しない場合のエラーを生成する。
func NewAuditNotFoundError(caseID string) *APIError {
	return &APIError{
		Code:     ErrCodeAuditNotFound,
		Message:  fmt.Sprintf("ケースの監査ログが存在しません: %s", caseID),
		Category: "case",
		Action:   "ケースIDを確認してください。",
	}
}

// NewInvalidRoleError は無効なロール指定エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには admin または user を指定してください。",
	}
}

// NewInvalidCaseStateError はケースの状態遷移が不正な場合のエラーを生成する。
func NewInvalidCaseStateError(caseID string, current CaseStatus) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCaseState,
		Message:  fmt.Sprintf("ケース %s は現在の状態（%s）ではこの操作を受け付けません。", caseID, current),
		Category: "case",
		Action:   "ケース一覧を再読み込みして最新の状態を確認してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
