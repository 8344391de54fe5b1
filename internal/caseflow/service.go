// Package caseflow は住所変更ケースのライフサイクルを管理する。
// 提出 → 承認 → 処理 →（必要なら職員による住所修正）→ 完了の流れと、
// 各遷移の監査ログ記録を提供する。
package caseflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/repository"
)

// pendingStatuses は「承認・処理待ち」一覧に含めるステータス。
var pendingStatuses = []model.CaseStatus{
	model.CaseStatusPendingApproval,
	model.CaseStatusProcessing,
}

// URLValidator は保存前に書類URLの安全性を検証する。
// security.SSRFGuardServiceがこれを満たす。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Service はケース管理のサービス層。
type Service struct {
	caseRepo     repository.CaseRepository
	auditRepo    repository.AuditRepository
	urlValidator URLValidator
	now          func() time.Time
}

// NewService はServiceを生成する。
func NewService(caseRepo repository.CaseRepository, auditRepo repository.AuditRepository, urlValidator URLValidator) *Service {
	return &Service{
		caseRepo:     caseRepo,
		auditRepo:    auditRepo,
		urlValidator: urlValidator,
		now:          time.Now,
	}
}

// ListPending は承認・処理待ちのケース一覧を返す。
func (s *Service) ListPending(ctx context.Context) ([]model.Case, error) {
	return s.caseRepo.ListByStatuses(ctx, pendingStatuses)
}

// ListHITL は職員による住所修正待ちのケース一覧を返す。
func (s *Service) ListHITL(ctx context.Context) ([]model.Case, error) {
	return s.caseRepo.ListByStatuses(ctx, []model.CaseStatus{model.CaseStatusWaitingForHuman})
}

// ListCompleted は完了したケース一覧を返す。
func (s *Service) ListCompleted(ctx context.Context) ([]model.Case, error) {
	return s.caseRepo.ListByStatuses(ctx, []model.CaseStatus{model.CaseStatusClosed})
}

// ListAll は全ケースを返す。市民サマリーの集計元として使用する。
func (s *Service) ListAll(ctx context.Context) ([]model.Case, error) {
	return s.caseRepo.ListAll(ctx)
}

// GetCase は指定ケースの詳細を返す。
func (s *Service) GetCase(ctx context.Context, caseID string) (*model.Case, error) {
	c, err := s.caseRepo.FindByCaseID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	if c == nil {
		return nil, model.NewCaseNotFoundError(caseID)
	}
	return c, nil
}

// GetAuditLog は指定ケースの監査ログを時系列順で返す。
// エントリが1件もない場合は業務エラーを返す。
func (s *Service) GetAuditLog(ctx context.Context, caseID string) ([]model.AuditEntry, error) {
	entries, err := s.auditRepo.ListByCaseID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit log: %w", err)
	}
	if len(entries) == 0 {
		return nil, model.NewAuditNotFoundError(caseID)
	}
	return entries, nil
}

// SubmitInput はケース提出の入力。
type SubmitInput struct {
	CitizenName   string
	Email         string
	DOB           string
	OldAddressRaw string
	NewAddressRaw string
	MoveInDateRaw string
	LandlordName  string
	DocumentURL   string
}

// Submit は新しいケースをPENDING_APPROVALで作成し、監査ログを記録する。
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*model.Case, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, model.NewValidationError("メールアドレスは必須です")
	}
	if strings.TrimSpace(input.NewAddressRaw) == "" {
		return nil, model.NewValidationError("新住所は必須です")
	}
	// 内部ネットワークを指すURLを保存すると、後段の書類取得で
	// SSRFの踏み台になるため、保存前に拒否する
	if input.DocumentURL != "" {
		if err := s.urlValidator.ValidateURL(input.DocumentURL); err != nil {
			slog.Warn("rejected unsafe document URL",
				slog.String("email", input.Email),
				slog.String("error", err.Error()),
			)
			return nil, model.NewValidationError("書類URLが許可されていません")
		}
	}

	c := &model.Case{
		CitizenName:   strings.TrimSpace(input.CitizenName),
		Email:         strings.TrimSpace(input.Email),
		DOB:           input.DOB,
		OldAddressRaw: input.OldAddressRaw,
		NewAddressRaw: input.NewAddressRaw,
		MoveInDateRaw: input.MoveInDateRaw,
		LandlordName:  input.LandlordName,
		DocumentURL:   input.DocumentURL,
		Status:        model.CaseStatusPendingApproval,
		SubmittedAt:   s.now(),
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	if err := s.auditRepo.Append(ctx, c.CaseID, "Case submitted by citizen"); err != nil {
		// ケース自体は作成済みのため、監査ログ失敗は記録のみに留める
		slog.Error("failed to append audit entry for submission",
			slog.String("case_id", c.CaseID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("case submitted",
		slog.String("case_id", c.CaseID),
		slog.String("email", c.Email),
	)

	return c, nil
}

// Approve はPENDING_APPROVALのケースをPROCESSINGに遷移させ、承認日時を記録する。
// それ以外の状態からの承認は業務エラー。
func (s *Service) Approve(ctx context.Context, caseID string) error {
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return err
	}
	if c.Status != model.CaseStatusPendingApproval {
		return model.NewInvalidCaseStateError(caseID, c.Status)
	}

	if err := s.caseRepo.MarkApproved(ctx, caseID, s.now()); err != nil {
		return fmt.Errorf("failed to approve case: %w", err)
	}

	if err := s.auditRepo.Append(ctx, caseID, "Case approved by admin, processing started"); err != nil {
		slog.Error("failed to append audit entry for approval",
			slog.String("case_id", caseID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("case approved", slog.String("case_id", caseID))
	return nil
}

// ResolveHITL はWAITING_FOR_HUMANのケースに修正済み住所を設定し、
// QUALITY_OKに遷移させる。それ以外の状態からの解決は業務エラー。
func (s *Service) ResolveHITL(ctx context.Context, caseID, correctedAddress string) error {
	correctedAddress = strings.TrimSpace(correctedAddress)
	if correctedAddress == "" {
		return model.NewValidationError("修正済み住所は必須です")
	}

	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return err
	}
	if c.Status != model.CaseStatusWaitingForHuman {
		return model.NewInvalidCaseStateError(caseID, c.Status)
	}

	if err := s.caseRepo.SetCanonicalAddress(ctx, caseID, correctedAddress); err != nil {
		return fmt.Errorf("failed to set corrected address: %w", err)
	}
	if err := s.caseRepo.UpdateStatus(ctx, caseID, model.CaseStatusQualityOK); err != nil {
		return fmt.Errorf("failed to update case status: %w", err)
	}

	msg := fmt.Sprintf("HITL resolved: admin corrected address to %q", correctedAddress)
	if err := s.auditRepo.Append(ctx, caseID, msg); err != nil {
		slog.Error("failed to append audit entry for HITL resolution",
			slog.String("case_id", caseID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("hitl case resolved",
		slog.String("case_id", caseID),
	)
	return nil
}
