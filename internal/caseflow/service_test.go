package caseflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/security"
)

// --- モック ---

type mockCaseRepo struct {
	findByCaseIDFn        func(ctx context.Context, caseID string) (*model.Case, error)
	listByStatusesFn      func(ctx context.Context, statuses []model.CaseStatus) ([]model.Case, error)
	listAllFn             func(ctx context.Context) ([]model.Case, error)
	createFn              func(ctx context.Context, c *model.Case) error
	updateStatusFn        func(ctx context.Context, caseID string, status model.CaseStatus) error
	markApprovedFn        func(ctx context.Context, caseID string, approvedAt time.Time) error
	setCanonicalAddressFn func(ctx context.Context, caseID, address string) error
}

func (m *mockCaseRepo) FindByCaseID(ctx context.Context, caseID string) (*model.Case, error) {
	if m.findByCaseIDFn != nil {
		return m.findByCaseIDFn(ctx, caseID)
	}
	return nil, nil
}
func (m *mockCaseRepo) ListByStatuses(ctx context.Context, statuses []model.CaseStatus) ([]model.Case, error) {
	if m.listByStatusesFn != nil {
		return m.listByStatusesFn(ctx, statuses)
	}
	return nil, nil
}
func (m *mockCaseRepo) ListAll(ctx context.Context) ([]model.Case, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}
func (m *mockCaseRepo) Create(ctx context.Context, c *model.Case) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}
func (m *mockCaseRepo) UpdateStatus(ctx context.Context, caseID string, status model.CaseStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, caseID, status)
	}
	return nil
}
func (m *mockCaseRepo) MarkApproved(ctx context.Context, caseID string, approvedAt time.Time) error {
	if m.markApprovedFn != nil {
		return m.markApprovedFn(ctx, caseID, approvedAt)
	}
	return nil
}
func (m *mockCaseRepo) SetCanonicalAddress(ctx context.Context, caseID, address string) error {
	if m.setCanonicalAddressFn != nil {
		return m.setCanonicalAddressFn(ctx, caseID, address)
	}
	return nil
}

type mockAuditRepo struct {
	appendFn       func(ctx context.Context, caseID, message string) error
	listByCaseIDFn func(ctx context.Context, caseID string) ([]model.AuditEntry, error)
}

func (m *mockAuditRepo) Append(ctx context.Context, caseID, message string) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, caseID, message)
	}
	return nil
}
func (m *mockAuditRepo) ListByCaseID(ctx context.Context, caseID string) ([]model.AuditEntry, error) {
	if m.listByCaseIDFn != nil {
		return m.listByCaseIDFn(ctx, caseID)
	}
	return nil, nil
}

// --- テスト ---

// TestService_Submit_CreatesPendingApprovalCase は提出されたケースが
// PENDING_APPROVALで作成され、監査ログが記録されることを検証する。
func TestService_Submit_CreatesPendingApprovalCase(t *testing.T) {
	var created *model.Case
	var auditMessages []string

	caseRepo := &mockCaseRepo{
		createFn: func(ctx context.Context, c *model.Case) error {
			c.CaseID = "Case ID: 1"
			created = c
			return nil
		},
	}
	auditRepo := &mockAuditRepo{
		appendFn: func(ctx context.Context, caseID, message string) error {
			auditMessages = append(auditMessages, message)
			return nil
		},
	}

	svc := NewService(caseRepo, auditRepo, security.NewSSRFGuard())
	c, err := svc.Submit(context.Background(), SubmitInput{
		CitizenName:   "Anna Schmidt",
		Email:         "a@x.de",
		NewAddressRaw: "Neue Strasse 5, 80331 Muenchen",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected case to be created")
	}
	if c.Status != model.CaseStatusPendingApproval {
		t.Errorf("Status = %s, want %s", c.Status, model.CaseStatusPendingApproval)
	}
	if c.CaseID != "Case ID: 1" {
		t.Errorf("CaseID = %q, want %q", c.CaseID, "Case ID: 1")
	}
	if len(auditMessages) != 1 {
		t.Fatalf("len(auditMessages) = %d, want 1", len(auditMessages))
	}
}

// TestService_Submit_RequiresEmailAndAddress は必須項目の欠落が
// 検証エラーになり、ケースが作成されないことを検証する。
func TestService_Submit_RequiresEmailAndAddress(t *testing.T) {
	createCalled := false
	caseRepo := &mockCaseRepo{
		createFn: func(ctx context.Context, c *model.Case) error {
			createCalled = true
			return nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())

	tests := []struct {
		name  string
		input SubmitInput
	}{
		{"missing email", SubmitInput{NewAddressRaw: "Strasse 1"}},
		{"missing address", SubmitInput{Email: "a@x.de"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeValidationFailed)
			}
		})
	}

	if createCalled {
		t.Error("Create should not be called for invalid input")
	}
}

// TestService_Approve_TransitionsToProcessing は承認で
// PENDING_APPROVAL → PROCESSING に遷移し、承認日時が記録されることを検証する。
func TestService_Approve_TransitionsToProcessing(t *testing.T) {
	approvalTime := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	var approvedCaseID string
	var recordedAt time.Time
	caseRepo := &mockCaseRepo{
		findByCaseIDFn: func(ctx context.Context, caseID string) (*model.Case, error) {
			return &model.Case{CaseID: caseID, Status: model.CaseStatusPendingApproval}, nil
		},
		markApprovedFn: func(ctx context.Context, caseID string, approvedAt time.Time) error {
			approvedCaseID = caseID
			recordedAt = approvedAt
			return nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())
	svc.now = func() time.Time { return approvalTime }

	if err := svc.Approve(context.Background(), "Case ID: 1"); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if approvedCaseID != "Case ID: 1" {
		t.Errorf("approved case = %q, want %q", approvedCaseID, "Case ID: 1")
	}
	if !recordedAt.Equal(approvalTime) {
		t.Errorf("approved_at = %v, want %v", recordedAt, approvalTime)
	}
}

// TestService_Submit_RejectsUnsafeDocumentURL は内部ネットワークを指す
// 書類URLが検証エラーとなり、ケースが作成されないことを検証する。
func TestService_Submit_RejectsUnsafeDocumentURL(t *testing.T) {
	createCalled := false
	caseRepo := &mockCaseRepo{
		createFn: func(ctx context.Context, c *model.Case) error {
			createCalled = true
			return nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())

	tests := []struct {
		name        string
		documentURL string
	}{
		{"metadata endpoint", "http://169.254.169.254/latest/meta-data/"},
		{"loopback", "http://127.0.0.1:8080/doc.pdf"},
		{"localhost", "http://localhost/doc.pdf"},
		{"private network", "http://10.0.0.5/doc.pdf"},
		{"file scheme", "file:///etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), SubmitInput{
				Email:         "a@x.de",
				NewAddressRaw: "Neue Strasse 5, 80331 Muenchen",
				DocumentURL:   tt.documentURL,
			})
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeValidationFailed)
			}
		})
	}

	if createCalled {
		t.Error("Create should not be called for unsafe document URL")
	}
}

// TestService_Submit_AcceptsPublicDocumentURL は公開URLの書類が
// そのまま保存されることを検証する。
func TestService_Submit_AcceptsPublicDocumentURL(t *testing.T) {
	var created *model.Case
	caseRepo := &mockCaseRepo{
		createFn: func(ctx context.Context, c *model.Case) error {
			created = c
			return nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())

	const docURL = "https://storage.example.com/docs/lease.pdf"
	_, err := svc.Submit(context.Background(), SubmitInput{
		Email:         "a@x.de",
		NewAddressRaw: "Neue Strasse 5, 80331 Muenchen",
		DocumentURL:   docURL,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if created == nil || created.DocumentURL != docURL {
		t.Errorf("stored document URL = %v, want %q", created, docURL)
	}
}

// TestService_Approve_WrongState は承認待ち以外のケースの承認が
// 業務エラー（500ではない）になることを検証する。
func TestService_Approve_WrongState(t *testing.T) {
	caseRepo := &mockCaseRepo{
		findByCaseIDFn: func(ctx context.Context, caseID string) (*model.Case, error) {
			return &model.Case{CaseID: caseID, Status: model.CaseStatusClosed}, nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())

	err := svc.Approve(context.Background(), "Case ID: 1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCaseState {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeInvalidCaseState)
	}
}

// TestService_ResolveHITL_SetsAddressAndStatus はHITL解決で修正住所が
// 保存されQUALITY_OKに遷移し、監査ログに住所が残ることを検証する。
func TestService_ResolveHITL_SetsAddressAndStatus(t *testing.T) {
	var savedAddress string
	var updatedStatus model.CaseStatus
	var auditMessage string

	caseRepo := &mockCaseRepo{
		findByCaseIDFn: func(ctx context.Context, caseID string) (*model.Case, error) {
			return &model.Case{CaseID: caseID, Status: model.CaseStatusWaitingForHuman}, nil
		},
		setCanonicalAddressFn: func(ctx context.Context, caseID, address string) error {
			savedAddress = address
			return nil
		},
		updateStatusFn: func(ctx context.Context, caseID string, status model.CaseStatus) error {
			updatedStatus = status
			return nil
		},
	}
	auditRepo := &mockAuditRepo{
		appendFn: func(ctx context.Context, caseID, message string) error {
			auditMessage = message
			return nil
		},
	}
	svc := NewService(caseRepo, auditRepo, security.NewSSRFGuard())

	err := svc.ResolveHITL(context.Background(), "Case ID: 7", "Musterweg 3, 10115 Berlin")
	if err != nil {
		t.Fatalf("ResolveHITL returned error: %v", err)
	}
	if savedAddress != "Musterweg 3, 10115 Berlin" {
		t.Errorf("savedAddress = %q", savedAddress)
	}
	if updatedStatus != model.CaseStatusQualityOK {
		t.Errorf("status = %s, want %s", updatedStatus, model.CaseStatusQualityOK)
	}
	if !strings.Contains(auditMessage, "Musterweg 3") {
		t.Errorf("audit message should contain corrected address: %q", auditMessage)
	}
}

// TestService_ResolveHITL_WrongState はHITL待ち以外のケースの解決が
// 業務エラーになることを検証する。
func TestService_ResolveHITL_WrongState(t *testing.T) {
	caseRepo := &mockCaseRepo{
		findByCaseIDFn: func(ctx context.Context, caseID string) (*model.Case, error) {
			return &model.Case{CaseID: caseID, Status: model.CaseStatusProcessing}, nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())

	err := svc.ResolveHITL(context.Background(), "Case ID: 7", "Musterweg 3")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeInvalidCaseState {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeInvalidCaseState)
	}
}

// TestService_GetCase_NotFound は存在しないケースの取得が
// CASE_NOT_FOUNDになることを検証する。
func TestService_GetCase_NotFound(t *testing.T) {
	svc := NewService(&mockCaseRepo{}, &mockAuditRepo{}, security.NewSSRFGuard())

	_, err := svc.GetCase(context.Background(), "Case ID: 999")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeCaseNotFound {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeCaseNotFound)
	}
}

// TestService_GetAuditLog_Empty は監査ログが0件の場合に業務エラーを
// 返すことを検証する。
func TestService_GetAuditLog_Empty(t *testing.T) {
	svc := NewService(&mockCaseRepo{}, &mockAuditRepo{}, security.NewSSRFGuard())

	_, err := svc.GetAuditLog(context.Background(), "Case ID: 1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeAuditNotFound {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeAuditNotFound)
	}
}

// TestService_ListPending_QueriesPendingStatuses は承認待ち一覧が
// PENDING_APPROVALとPROCESSINGの両方を対象にすることを検証する。
func TestService_ListPending_QueriesPendingStatuses(t *testing.T) {
	var queried []model.CaseStatus
	caseRepo := &mockCaseRepo{
		listByStatusesFn: func(ctx context.Context, statuses []model.CaseStatus) ([]model.Case, error) {
			queried = statuses
			return []model.Case{{CaseID: "Case ID: 1", SubmittedAt: time.Now()}}, nil
		},
	}
	svc := NewService(caseRepo, &mockAuditRepo{}, security.NewSSRFGuard())

	cases, err := svc.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(cases) != 1 {
		t.Errorf("len(cases) = %d, want 1", len(cases))
	}
	if len(queried) != 2 || queried[0] != model.CaseStatusPendingApproval || queried[1] != model.CaseStatusProcessing {
		t.Errorf("queried statuses = %v", queried)
	}
}
