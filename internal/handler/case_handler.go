package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cityadmin/portal/internal/caseflow"
	"github.com/cityadmin/portal/internal/metrics"
	"github.com/cityadmin/portal/internal/model"
)

// CaseServiceInterface はケースハンドラーが必要とするサービスインターフェース。
type CaseServiceInterface interface {
	ListPending(ctx context.Context) ([]model.Case, error)
	ListHITL(ctx context.Context) ([]model.Case, error)
	ListCompleted(ctx context.Context) ([]model.Case, error)
	GetCase(ctx context.Context, caseID string) (*model.Case, error)
	GetAuditLog(ctx context.Context, caseID string) ([]model.AuditEntry, error)
	Submit(ctx context.Context, input caseflow.SubmitInput) (*model.Case, error)
	Approve(ctx context.Context, caseID string) error
	ResolveHITL(ctx context.Context, caseID, correctedAddress string) error
}

// CaseHandler は住所変更ケースのHTTPハンドラー。
type CaseHandler struct {
	service   CaseServiceInterface
	collector metrics.MetricsCollector
}

// NewCaseHandler はCaseHandlerを生成する。
func NewCaseHandler(service CaseServiceInterface, collector metrics.MetricsCollector) *CaseHandler {
	return &CaseHandler{
		service:   service,
		collector: collector,
	}
}

// submitCaseRequest はケース提出リクエストのボディ。
type submitCaseRequest struct {
	CitizenName  string `json:"citizen_name"`
	Email        string `json:"email"`
	DOB          string `json:"dob"`
	OldAddress   string `json:"old_address"`
	NewAddress   string `json:"new_address"`
	MoveInDate   string `json:"move_in_date"`
	LandlordName string `json:"landlord_name"`
	DocumentURL  string `json:"document_url"`
}

// caseResponse はケース情報のAPIレスポンス。
type caseResponse struct {
	CaseID           string `json:"case_id"`
	CitizenName      string `json:"citizen_name"`
	Email            string `json:"email"`
	DOB              string `json:"dob,omitempty"`
	OldAddress       string `json:"old_address,omitempty"`
	NewAddress       string `json:"new_address,omitempty"`
	MoveInDate       string `json:"move_in_date,omitempty"`
	LandlordName     string `json:"landlord_name,omitempty"`
	CanonicalAddress string `json:"canonical_address,omitempty"`
	Status           string `json:"status"`
	DocumentURL      string `json:"document_url,omitempty"`
	SubmittedAt      string `json:"submitted_at"`
	UpdatedAt        string `json:"updated_at"`
}

// caseListResponse はケース一覧のAPIレスポンス。
type caseListResponse struct {
	Cases []caseResponse `json:"cases"`
}

// auditEntryResponse は監査ログ1件のAPIレスポンス。
type auditEntryResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListPendingCases は承認待ち・処理中のケース一覧を返す。
// GET /admin/pending-cases
func (h *CaseHandler) ListPendingCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListPending(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeCaseListResponse(w, cases)
}

// ListHITLCases は職員の対応待ちのケース一覧を返す。
// GET /admin/hitl-cases
func (h *CaseHandler) ListHITLCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListHITL(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeCaseListResponse(w, cases)
}

// ListCompletedCases は完了済みのケース一覧を返す。
// GET /admin/completed-cases
func (h *CaseHandler) ListCompletedCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListCompleted(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeCaseListResponse(w, cases)
}

// GetCase はケースの詳細を返す。
// GET /cases/{case_id}
func (h *CaseHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	c, err := h.service.GetCase(r.Context(), caseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if c == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCaseNotFoundError(caseID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCaseResponse(c))
}

// GetAuditLog はケースの監査ログを返す。
// GET /cases/{case_id}/audit
func (h *CaseHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	entries, err := h.service.GetAuditLog(r.Context(), caseID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, auditEntryResponse{
			Message:   e.Message,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"audit": resp})
}

// SubmitCase は市民からのケース提出を受け付ける。
// POST /submit-case
func (h *CaseHandler) SubmitCase(w http.ResponseWriter, r *http.Request) {
	var req submitCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	c, err := h.service.Submit(r.Context(), caseflow.SubmitInput{
		CitizenName:   req.CitizenName,
		Email:         req.Email,
		DOB:           req.DOB,
		OldAddressRaw: req.OldAddress,
		NewAddressRaw: req.NewAddress,
		MoveInDateRaw: req.MoveInDate,
		LandlordName:  req.LandlordName,
		DocumentURL:   req.DocumentURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordCaseSubmitted()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"case_id": c.CaseID,
	})
}

// ApproveCase は承認待ちケースを承認し、処理を開始させる。
// POST /admin/approve-case/{case_id}
func (h *CaseHandler) ApproveCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	if err := h.service.Approve(r.Context(), caseID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// resolveHITLRequest はHITL解決リクエストのボディ。
type resolveHITLRequest struct {
	CorrectedAddress string `json:"corrected_address"`
}

// ResolveHITL は職員による住所修正を受け付け、ケースの処理を再開させる。
// POST /admin/resolve-hitl/{case_id}
func (h *CaseHandler) ResolveHITL(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	var req resolveHITLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	if req.CorrectedAddress == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("修正後の住所は必須です"))
		return
	}

	if err := h.service.ResolveHITL(r.Context(), caseID, req.CorrectedAddress); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// toCaseResponse はmodel.CaseをAPIレスポンス形式に変換する。
func toCaseResponse(c *model.Case) caseResponse {
	return caseResponse{
		CaseID:           c.CaseID,
		CitizenName:      c.CitizenName,
		Email:            c.Email,
		DOB:              c.DOB,
		OldAddress:       c.OldAddressRaw,
		NewAddress:       c.NewAddressRaw,
		MoveInDate:       c.MoveInDateRaw,
		LandlordName:     c.LandlordName,
		CanonicalAddress: c.CanonicalAddress,
		Status:           string(c.Status),
		DocumentURL:      c.DocumentURL,
		SubmittedAt:      c.SubmittedAt.Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.Format(time.RFC3339),
	}
}

// writeCaseListResponse はケース一覧のJSONレスポンスを書き込む。
func writeCaseListResponse(w http.ResponseWriter, cases []model.Case) {
	resp := caseListResponse{Cases: make([]caseResponse, 0, len(cases))}
	for i := range cases {
		resp.Cases = append(resp.Cases, toCaseResponse(&cases[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeAPIErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Success:  false,
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredential, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeCaseNotFound, model.ErrCodeAuditNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRole, model.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCaseState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
