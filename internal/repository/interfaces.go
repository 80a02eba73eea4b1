// Package repository defines repository interfaces for data access.
// Accounts live in the external auth system; account_id fields carry its
// subject identifiers and have no local FK.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/citelens/citelens-api/internal/models"
)

// AuditRepository defines methods for audit data access.
type AuditRepository interface {
	Create(ctx context.Context, result *models.AnalysisResult) error
	GetByID(ctx context.Context, id string) (*models.AnalysisResult, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.AnalysisResult, error)
	// CountByAccountSince backs the monthly ceiling gate.
	CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int, error)
}

// UsageRepository defines methods for token and cost accounting.
type UsageRepository interface {
	Record(ctx context.Context, accountID, auditID, provider, model string, inputTokens, outputTokens int, costUSD float64) error
	SummarySince(ctx context.Context, accountID string, since time.Time) (*models.UsageSummary, error)
}

// TrialRepository defines methods for trial signup history.
type TrialRepository interface {
	Create(ctx context.Context, record *models.TrialRecord) error
	TrialsSince(ctx context.Context, since time.Time) ([]models.TrialRecord, error)
	CountByFingerprint(ctx context.Context, fingerprint string, since time.Time) (int, error)
	CountByIP(ctx context.Context, ip string, since time.Time) (int, error)
}

// Repositories holds all repository implementations.
type Repositories struct {
	Audit AuditRepository
	Usage UsageRepository
	Trial TrialRepository
}

// NewRepositories creates all repositories with a database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Audit: NewSQLiteAuditRepository(db),
		Usage: NewSQLiteUsageRepository(db),
		Trial: NewSQLiteTrialRepository(db),
	}
}
