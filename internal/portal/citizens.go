package portal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cityadmin/portal/internal/citizen"
	"github.com/cityadmin/portal/internal/model"
)

// ケース一覧の取得先エンドポイント。フォールバック時はこの3つを束ねる。
var caseEndpoints = []string{
	"/admin/pending-cases",
	"/admin/hitl-cases",
	"/admin/completed-cases",
}

// CitizenResult は市民サマリー取得の結果。
// Degradedは集約エンドポイントが使えずケース一覧からの再構築に
// フォールバックしたことを示す。フォールバック経路では集約は
// クライアント側で計算されるため、サーバー側の集約と順序は一致するが
// レスポンスは3回のケース取得に分かれる。
type CitizenResult struct {
	Citizens []citizen.Summary
	Degraded bool
}

// citizenListResponse は集約エンドポイントのレスポンス。
type citizenListResponse struct {
	Citizens []citizen.Summary `json:"citizens"`
}

// caseListResponse はケース一覧エンドポイントのレスポンス。
type caseListResponse struct {
	Cases []caseDTO `json:"cases"`
}

// caseDTO はワイヤ上のケース表現。時刻はRFC3339文字列。
// 欠落フィールドはゼロ値として扱い、デコードを失敗させない。
type caseDTO struct {
	CaseID           string `json:"case_id"`
	CitizenName      string `json:"citizen_name"`
	Email            string `json:"email"`
	DOB              string `json:"dob"`
	OldAddressRaw    string `json:"old_address"`
	NewAddressRaw    string `json:"new_address"`
	MoveInDateRaw    string `json:"move_in_date"`
	LandlordName     string `json:"landlord_name"`
	CanonicalAddress string `json:"canonical_address"`
	Status           string `json:"status"`
	DocumentURL      string `json:"document_url"`
	SubmittedAt      string `json:"submitted_at"`
	UpdatedAt        string `json:"updated_at"`
}

// toModel はワイヤ表現をドメインモデルに変換する。
// 時刻のパースに失敗した場合はゼロ値のままにする。
func (d caseDTO) toModel() model.Case {
	c := model.Case{
		CaseID:           d.CaseID,
		CitizenName:      d.CitizenName,
		Email:            d.Email,
		DOB:              d.DOB,
		OldAddressRaw:    d.OldAddressRaw,
		NewAddressRaw:    d.NewAddressRaw,
		MoveInDateRaw:    d.MoveInDateRaw,
		LandlordName:     d.LandlordName,
		CanonicalAddress: d.CanonicalAddress,
		Status:           model.CaseStatus(d.Status),
		DocumentURL:      d.DocumentURL,
	}
	if t, err := time.Parse(time.RFC3339, d.SubmittedAt); err == nil {
		c.SubmittedAt = t
	}
	if t, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
		c.UpdatedAt = t
	}
	return c
}

// FetchCitizens は市民サマリー一覧を取得する。
// まず集約エンドポイントを試し、失敗した場合はケース一覧の並列取得に
// フォールバックしてクライアント側で集約する。
func (c *Client) FetchCitizens(ctx context.Context) (*CitizenResult, error) {
	var resp citizenListResponse
	err := c.do(ctx, http.MethodGet, "/admin/citizens", nil, &resp)
	if err == nil {
		if resp.Citizens == nil {
			resp.Citizens = []citizen.Summary{}
		}
		return &CitizenResult{Citizens: resp.Citizens}, nil
	}

	slog.Warn("citizen aggregation endpoint unavailable, falling back to case lists", "error", err)
	if c.collector != nil {
		c.collector.RecordCitizenFallback()
	}

	cases, fallbackErr := c.fetchAllCases(ctx)
	if fallbackErr != nil {
		// どちらの段も失敗した場合は一次エラーを返す。
		return nil, fmt.Errorf("failed to fetch citizens: %w", err)
	}
	return &CitizenResult{Citizens: citizen.Summarize(cases), Degraded: true}, nil
}

// FetchCase は単一ケースの詳細を取得する。こちらは公開エンドポイントで、
// 認証なしでも参照できる。
func (c *Client) FetchCase(ctx context.Context, caseID string) (*model.Case, error) {
	var dto caseDTO
	if err := c.do(ctx, http.MethodGet, "/cases/"+caseID, nil, &dto); err != nil {
		return nil, err
	}
	m := dto.toModel()
	return &m, nil
}

// FetchCitizenCases は指定メールアドレスの市民のケース一覧を返す。
// 常にケース一覧の並列取得で収集し、提出日時の降順で返す。
func (c *Client) FetchCitizenCases(ctx context.Context, email string) ([]model.Case, error) {
	cases, err := c.fetchAllCases(ctx)
	if err != nil {
		return nil, err
	}
	return citizen.SortCasesBySubmittedAtDesc(citizen.FilterCasesByEmail(cases, email)), nil
}

// fetchAllCases は3つのケース一覧エンドポイントを並列に取得して結合する。
// いずれかが失敗した時点で残りのリクエストをキャンセルする。
func (c *Client) fetchAllCases(ctx context.Context) ([]model.Case, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		combined []model.Case
		firstErr error
	)

	for _, endpoint := range caseEndpoints {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()

			var resp caseListResponse
			if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to fetch %s: %w", endpoint, err)
					cancel()
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			for _, dto := range resp.Cases {
				combined = append(combined, dto.toModel())
			}
			mu.Unlock()
		}(endpoint)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return combined, nil
}

// SearchCitizens はサマリー一覧を検索語で絞り込む。検索はクライアント側で行う。
func SearchCitizens(list []citizen.Summary, query string) []citizen.Summary {
	return citizen.Filter(list, query)
}

// ExportCitizensCSV はサマリー一覧をCSVとして書き出す。
func ExportCitizensCSV(w io.Writer, list []citizen.Summary) error {
	return citizen.WriteCSV(w, list)
}
