package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/cityadmin/portal/internal/model"
)

// PostgresCaseRepo はPostgreSQLを使用したケースリポジトリ。
type PostgresCaseRepo struct {
	db *sql.DB
}

// NewPostgresCaseRepo はPostgresCaseRepoを生成する。
func NewPostgresCaseRepo(db *sql.DB) *PostgresCaseRepo {
	return &PostgresCaseRepo{db: db}
}

const caseColumns = `case_id, citizen_name, email, COALESCE(dob, ''),
	COALESCE(old_address_raw, ''), COALESCE(new_address_raw, ''),
	COALESCE(move_in_date_raw, ''), COALESCE(landlord_name, ''),
	COALESCE(canonical_address, ''), status, COALESCE(document_url, ''),
	submitted_at, updated_at`

// FindByCaseID は人間可読のケースIDでケースを取得する。見つからない場合はnilを返す。
func (r *PostgresCaseRepo) FindByCaseID(ctx context.Context, caseID string) (*model.Case, error) {
	c := &model.Case{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE case_id = $1`, caseID,
	).Scan(&c.CaseID, &c.CitizenName, &c.Email, &c.DOB, &c.OldAddressRaw, &c.NewAddressRaw,
		&c.MoveInDateRaw, &c.LandlordName, &c.CanonicalAddress, &c.Status, &c.DocumentURL,
		&c.SubmittedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find case: %w", err)
	}

	return c, nil
}

// ListByStatuses は指定ステータスのケースを提出日時の降順で返す。
func (r *PostgresCaseRepo) ListByStatuses(ctx context.Context, statuses []model.CaseStatus) ([]model.Case, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE status = ANY($1) ORDER BY submitted_at DESC`,
		pq.Array(values),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases by status: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}

// ListAll は全ケースを提出日時の降順で返す。
func (r *PostgresCaseRepo) ListAll(ctx context.Context) ([]model.Case, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases ORDER BY submitted_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	return scanCases(rows)
}

// scanCases は結果セットをケースのスライスに読み取る。
func scanCases(rows *sql.Rows) ([]model.Case, error) {
	var cases []model.Case
	for rows.Next() {
		c := model.Case{}
		if err := rows.Scan(&c.CaseID, &c.CitizenName, &c.Email, &c.DOB, &c.OldAddressRaw,
			&c.NewAddressRaw, &c.MoveInDateRaw, &c.LandlordName, &c.CanonicalAddress,
			&c.Status, &c.DocumentURL, &c.SubmittedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan case row: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate case rows: %w", err)
	}
	return cases, nil
}

// Create はケースを作成する。人間可読のケースID（"Case ID: N"）は
// シーケンスから採番し、c.CaseIDに書き戻す。
func (r *PostgresCaseRepo) Create(ctx context.Context, c *model.Case) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('case_number_seq')`).Scan(&next); err != nil {
		return fmt.Errorf("failed to allocate case number: %w", err)
	}
	c.CaseID = fmt.Sprintf("Case ID: %d", next)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cases (case_id, citizen_name, email, dob, old_address_raw, new_address_raw,
		                    move_in_date_raw, landlord_name, status, document_url, submitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		c.CaseID, c.CitizenName, c.Email, c.DOB, c.OldAddressRaw, c.NewAddressRaw,
		c.MoveInDateRaw, c.LandlordName, c.Status, c.DocumentURL, c.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert case: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus は指定ケースのステータスを更新する。
func (r *PostgresCaseRepo) UpdateStatus(ctx context.Context, caseID string, status model.CaseStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = $1, updated_at = now() WHERE case_id = $2`,
		status, caseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update case status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewCaseNotFoundError(caseID)
	}
	return nil
}

// MarkApproved はケースをPROCESSINGに遷移させ、承認日時を記録する。
func (r *PostgresCaseRepo) MarkApproved(ctx context.Context, caseID string, approvedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = $1, approved_at = $2, updated_at = now() WHERE case_id = $3`,
		model.CaseStatusProcessing, approvedAt, caseID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark case approved: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewCaseNotFoundError(caseID)
	}
	return nil
}

// SetCanonicalAddress は正規化済み住所を保存する。
func (r *PostgresCaseRepo) SetCanonicalAddress(ctx context.Context, caseID, address string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cases SET canonical_address = $1, updated_at = now() WHERE case_id = $2`,
		address, caseID,
	)
	if err != nil {
		return fmt.Errorf("failed to set canonical address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewCaseNotFoundError(caseID)
	}
	return nil
}

// compile-time interface check
var _ CaseRepository = (*PostgresCaseRepo)(nil)
