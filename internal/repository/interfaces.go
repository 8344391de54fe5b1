// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/cityadmin/portal/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// 大文字小文字は同一視する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByGoogleID はGoogle IDでユーザーを検索する。見つからない場合はnilを返す。
	FindByGoogleID(ctx context.Context, googleID string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時の降順で返す。
	List(ctx context.Context) ([]model.User, error)

	// UpdateRole は指定IDのユーザーのロールを更新する。
	// ユーザーが存在しない場合はエラーを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// UpdateLoginIdentity はログイン時に更新されるフィールド
	// （google_id、name、picture、last_login）を保存する。
	UpdateLoginIdentity(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// ユーザーが存在しない場合はエラーを返す。
	DeleteByID(ctx context.Context, id string) error
}

// CaseRepository はケースデータの永続化インターフェース。
type CaseRepository interface {
	// FindByCaseID は人間可読のケースIDでケースを取得する。
	// 見つからない場合はnilを返す。
	FindByCaseID(ctx context.Context, caseID string) (*model.Case, error)

	// ListByStatuses は指定ステータスのケースを提出日時の降順で返す。
	ListByStatuses(ctx context.Context, statuses []model.CaseStatus) ([]model.Case, error)

	// ListAll は全ケースを提出日時の降順で返す。
	ListAll(ctx context.Context) ([]model.Case, error)

	// Create はケースを作成し、採番された人間可読ケースIDを設定する。
	Create(ctx context.Context, c *model.Case) error

	// UpdateStatus は指定ケースのステータスを更新する。
	UpdateStatus(ctx context.Context, caseID string, status model.CaseStatus) error

	// MarkApproved はケースをPROCESSINGに遷移させ、承認日時を記録する。
	MarkApproved(ctx context.Context, caseID string, approvedAt time.Time) error

	// SetCanonicalAddress は正規化済み住所を保存する。
	SetCanonicalAddress(ctx context.Context, caseID, address string) error
}

// AuditRepository はケース監査ログの永続化インターフェース。
type AuditRepository interface {
	// Append は監査ログエントリを追記する。
	Append(ctx context.Context, caseID, message string) error

	// ListByCaseID は指定ケースの監査ログを時系列順で返す。
	ListByCaseID(ctx context.Context, caseID string) ([]model.AuditEntry, error)
}

// ContactRepository は問い合わせメッセージの永続化インターフェース。
type ContactRepository interface {
	// Create は問い合わせメッセージを保存する。
	Create(ctx context.Context, msg *model.ContactMessage) error
}
