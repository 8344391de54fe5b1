package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cityadmin/portal/internal/citizen"
	"github.com/cityadmin/portal/internal/model"
)

// CaseLister は市民集計に必要な全ケース取得のインターフェース。
type CaseLister interface {
	ListAll(ctx context.Context) ([]model.Case, error)
}

// CitizenHandler は市民サマリーのHTTPハンドラー。
// サマリーは保存せず、リクエストごとに全ケースから畳み込んで算出する。
type CitizenHandler struct {
	lister CaseLister
}

// NewCitizenHandler はCitizenHandlerを生成する。
func NewCitizenHandler(lister CaseLister) *CitizenHandler {
	return &CitizenHandler{lister: lister}
}

// citizenListResponse は市民サマリー一覧のAPIレスポンス。
type citizenListResponse struct {
	Citizens []citizen.Summary `json:"citizens"`
}

// ListCitizens は市民ごとのケース集計を返す。
// クエリパラメータ q で名前・メールアドレスの部分一致検索ができる。
// GET /admin/citizens
func (h *CitizenHandler) ListCitizens(w http.ResponseWriter, r *http.Request) {
	cases, err := h.lister.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summaries := citizen.Summarize(cases)
	if q := r.URL.Query().Get("q"); q != "" {
		summaries = citizen.Filter(summaries, q)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(citizenListResponse{Citizens: summaries})
}

// ExportCitizensCSV は市民サマリーをCSVとして出力する。
// GET /admin/citizens/csv
func (h *CitizenHandler) ExportCitizensCSV(w http.ResponseWriter, r *http.Request) {
	cases, err := h.lister.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summaries := citizen.Summarize(cases)
	if q := r.URL.Query().Get("q"); q != "" {
		summaries = citizen.Filter(summaries, q)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="citizens.csv"`)
	if err := citizen.WriteCSV(w, summaries); err != nil {
		// ヘッダー送信後のためステータスは変更できない。ログのみ記録する。
		slog.Error("failed to write citizens csv", slog.String("error", err.Error()))
	}
}
