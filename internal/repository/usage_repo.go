package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/citelens/citelens-api/internal/models"
)

// SQLiteUsageRepository implements UsageRepository for SQLite.
type SQLiteUsageRepository struct {
	db *sql.DB
}

// NewSQLiteUsageRepository creates a new SQLite usage repository.
func NewSQLiteUsageRepository(db *sql.DB) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{db: db}
}

func (r *SQLiteUsageRepository) Record(ctx context.Context, accountID, auditID, provider, model string, inputTokens, outputTokens int, costUSD float64) error {
	query := `
		INSERT INTO audit_usage (id, account_id, audit_id, provider, model,
			input_tokens, output_tokens, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		ulid.Make().String(),
		accountID,
		auditID,
		provider,
		model,
		inputTokens,
		outputTokens,
		costUSD,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

func (r *SQLiteUsageRepository) SummarySince(ctx context.Context, accountID string, since time.Time) (*models.UsageSummary, error) {
	query := `
		SELECT COUNT(DISTINCT audit_id),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(cost_usd), 0)
		FROM audit_usage
		WHERE account_id = ? AND created_at >= ?
	`
	summary := &models.UsageSummary{
		AccountID:   accountID,
		PeriodStart: since,
	}
	err := r.db.QueryRowContext(ctx, query, accountID, since.UTC().Format(time.RFC3339)).Scan(
		&summary.Audits,
		&summary.InputTokens,
		&summary.OutputTokens,
		&summary.CostUSD,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	return summary, nil
}
