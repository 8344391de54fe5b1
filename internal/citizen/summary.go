// Package citizen はケースコレクションから市民ごとのサマリーを導出する。
// サマリーは永続化されない派生データで、取得のたびに再計算される。
// サーバー側の /admin/citizens と、クライアントの縮退パス（3エンドポイントの
// 再構成）の両方が同じ畳み込みを使う。
package citizen

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cityadmin/portal/internal/model"
)

// Summary は1市民のケース集計結果を表す。
// 不変条件: TotalCases = CompletedCases + PendingCases。
// Verified は CLOSED のケースが1件以上ある場合にのみ真。
// LastActivity はその市民のケースの submitted_at の最大値。
type Summary struct {
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	TotalCases     int       `json:"total_cases"`
	CompletedCases int       `json:"completed_cases"`
	PendingCases   int       `json:"pending_cases"`
	LastActivity   time.Time `json:"last_activity"`
	Verified       bool      `json:"verified"`
}

// Summarize はケースコレクションをメールアドレスをキーとして畳み込み、
// 市民ごとのサマリーを返す。メールアドレスの大文字小文字は同一視する。
// 出力はLastActivity降順（同時刻はメールアドレス昇順）で安定している。
func Summarize(cases []model.Case) []Summary {
	byEmail := make(map[string]*Summary)

	for _, c := range cases {
		key := strings.ToLower(strings.TrimSpace(c.Email))
		if key == "" {
			continue
		}

		s, ok := byEmail[key]
		if !ok {
			s = &Summary{Email: key}
			byEmail[key] = s
		}

		s.TotalCases++
		if c.IsCompleted() {
			s.CompletedCases++
			s.Verified = true
		} else {
			s.PendingCases++
		}
		if c.SubmittedAt.After(s.LastActivity) {
			s.LastActivity = c.SubmittedAt
		}
		// 氏名はケースごとに揺れる可能性があるため、空でない最初の値を採用する
		if s.Name == "" && c.CitizenName != "" {
			s.Name = c.CitizenName
		}
	}

	result := make([]Summary, 0, len(byEmail))
	for _, s := range byEmail {
		result = append(result, *s)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastActivity.Equal(result[j].LastActivity) {
			return result[i].LastActivity.After(result[j].LastActivity)
		}
		return result[i].Email < result[j].Email
	})

	return result
}

// Filter は氏名とメールアドレスに対する大文字小文字を無視した部分一致で
// サマリー一覧を絞り込む。空クエリは入力をそのまま返す。冪等。
func Filter(list []Summary, query string) []Summary {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}

	filtered := make([]Summary, 0, len(list))
	for _, s := range list {
		if strings.Contains(strings.ToLower(s.Name), q) ||
			strings.Contains(strings.ToLower(s.Email), q) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// csvHeader はCSVエクスポートのヘッダー行。
var csvHeader = []string{"email", "name", "total_cases", "completed_cases", "pending_cases", "last_activity", "verified"}

// WriteCSV はサマリー一覧をRFC 4180準拠のCSVとして書き出す。
// 区切り文字や改行を含むフィールドはencoding/csvが引用符で保護する。
func WriteCSV(w io.Writer, list []Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range list {
		record := []string{
			s.Email,
			s.Name,
			fmt.Sprintf("%d", s.TotalCases),
			fmt.Sprintf("%d", s.CompletedCases),
			fmt.Sprintf("%d", s.PendingCases),
			s.LastActivity.Format(time.RFC3339),
			fmt.Sprintf("%t", s.Verified),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// SortCasesBySubmittedAtDesc はケースを提出日時の降順に並べ替えた新しい
// スライスを返す。表示用の全順序で、同時刻は入力順を維持する。
func SortCasesBySubmittedAtDesc(cases []model.Case) []model.Case {
	sorted := make([]model.Case, len(cases))
	copy(sorted, cases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt)
	})
	return sorted
}

// FilterCasesByEmail はメールアドレスが一致するケースのみを返す。
// 大文字小文字は同一視する。
func FilterCasesByEmail(cases []model.Case, email string) []model.Case {
	target := strings.ToLower(strings.TrimSpace(email))
	filtered := make([]model.Case, 0, len(cases))
	for _, c := range cases {
		if strings.ToLower(strings.TrimSpace(c.Email)) == target {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
