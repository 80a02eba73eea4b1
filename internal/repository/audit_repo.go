package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/citelens/citelens-api/internal/models"
)

// SQLiteAuditRepository implements AuditRepository for SQLite.
type SQLiteAuditRepository struct {
	db *sql.DB
}

// NewSQLiteAuditRepository creates a new SQLite audit repository.
func NewSQLiteAuditRepository(db *sql.DB) *SQLiteAuditRepository {
	return &SQLiteAuditRepository{db: db}
}

func (r *SQLiteAuditRepository) Create(ctx context.Context, result *models.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal audit result: %w", err)
	}

	query := `
		INSERT INTO audits (id, account_id, website_url, brand_name, industry,
			citation_rate, visibility_score, total_cost_usd, result_json,
			created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.AccountID,
		result.WebsiteURL,
		result.BrandName,
		result.Industry,
		result.CitationRate,
		result.VisibilityScore,
		result.TotalCostUSD,
		string(resultJSON),
		result.CreatedAt.Format(time.RFC3339),
		result.CompletedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}
	return nil
}

func (r *SQLiteAuditRepository) GetByID(ctx context.Context, id string) (*models.AnalysisResult, error) {
	query := `SELECT result_json FROM audits WHERE id = ?`

	var resultJSON string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit result: %w", err)
	}
	return &result, nil
}

func (r *SQLiteAuditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.AnalysisResult, error) {
	query := `
		SELECT result_json FROM audits
		WHERE account_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var results []*models.AnalysisResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit result: %w", err)
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

func (r *SQLiteAuditRepository) CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM audits WHERE account_id = ? AND created_at >= ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, accountID, since.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audits: %w", err)
	}
	return count, nil
}
