package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cityadmin/portal/internal/model"
)

// PostgresAuditRepo はPostgreSQLを使用した監査ログリポジトリ。
// 監査ログは追記専用で、更新・削除は行わない。
type PostgresAuditRepo struct {
	db *sql.DB
}

// NewPostgresAuditRepo はPostgresAuditRepoを生成する。
func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

// Append は監査ログエントリを追記する。
func (r *PostgresAuditRepo) Append(ctx context.Context, caseID, message string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (case_id, message, timestamp) VALUES ($1, $2, now())`,
		caseID, message,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListByCaseID は指定ケースの監査ログを時系列順で返す。
func (r *PostgresAuditRepo) ListByCaseID(ctx context.Context, caseID string) ([]model.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT case_id, message, timestamp FROM audit_logs WHERE case_id = $1 ORDER BY timestamp ASC`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		e := model.AuditEntry{}
		if err := rows.Scan(&e.CaseID, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit rows: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ AuditRepository = (*PostgresAuditRepo)(nil)
