package model

import "time"

// CaseStatus は住所変更ケースの処理状態を表す。
type CaseStatus string

const (
	// CaseStatusPendingApproval は提出済みで承認待ちの状態。
	CaseStatusPendingApproval CaseStatus = "PENDING_APPROVAL"
	// CaseStatusProcessing は承認済みでワークフロー処理中の状態。
	CaseStatusProcessing CaseStatus = "PROCESSING"
	// CaseStatusPendingReview は自動処理後のレビュー待ち状態。
	CaseStatusPendingReview CaseStatus = "PENDING_REVIEW"
	// CaseStatusWaitingForHuman は住所の品質チェックに失敗し、
	// 職員による修正（HITL）を待っている状態。
	CaseStatusWaitingForHuman CaseStatus = "WAITING_FOR_HUMAN"
	// CaseStatusQualityOK はHITL解決済みで処理再開可能な状態。
	CaseStatusQualityOK CaseStatus = "QUALITY_OK"
	// CaseStatusClosed は完了した状態。
	CaseStatusClosed CaseStatus = "CLOSED"
	// CaseStatusError は処理中にエラーが発生した状態。
	CaseStatusError CaseStatus = "ERROR"
)

// Case は市民の住所変更ケースを表す。
// case_idは人間可読のID（例: "Case ID: 12"）で、外部に公開される識別子。
type Case struct {
	CaseID           string
	CitizenName      string
	Email            string
	DOB              string
	OldAddressRaw    string
	NewAddressRaw    string
	MoveInDateRaw    string
	LandlordName     string
	CanonicalAddress string
	Status           CaseStatus
	DocumentURL      string
	SubmittedAt      time.Time
	UpdatedAt        time.Time
}

// IsCompleted はケースが完了状態かどうかを返す。
// 市民サマリーの集計では CLOSED のみを完了として数える。
func (c *Case) IsCompleted() bool {
	return c.Status == CaseStatusClosed
}

// AuditEntry はケースの監査ログの1エントリを表す。
type AuditEntry struct {
	CaseID    string
	Message   string
	Timestamp time.Time
}
