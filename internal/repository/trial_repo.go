package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/citelens/citelens-api/internal/models"
)

// SQLiteTrialRepository implements TrialRepository for SQLite.
type SQLiteTrialRepository struct {
	db *sql.DB
}

// NewSQLiteTrialRepository creates a new SQLite trial repository.
func NewSQLiteTrialRepository(db *sql.DB) *SQLiteTrialRepository {
	return &SQLiteTrialRepository{db: db}
}

func (r *SQLiteTrialRepository) Create(ctx context.Context, record *models.TrialRecord) error {
	query := `
		INSERT INTO trial_records (id, email, email_norm, fingerprint, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Email,
		record.EmailNorm,
		nullString(record.Fingerprint),
		nullString(record.IPAddress),
		record.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create trial record: %w", err)
	}
	return nil
}

func (r *SQLiteTrialRepository) TrialsSince(ctx context.Context, since time.Time) ([]models.TrialRecord, error) {
	query := `
		SELECT id, email, email_norm, fingerprint, ip_address, created_at
		FROM trial_records
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query trial records: %w", err)
	}
	defer rows.Close()

	var records []models.TrialRecord
	for rows.Next() {
		var record models.TrialRecord
		var fingerprint, ipAddress sql.NullString
		var createdAt string
		if err := rows.Scan(&record.ID, &record.Email, &record.EmailNorm, &fingerprint, &ipAddress, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan trial record: %w", err)
		}
		record.Fingerprint = fingerprint.String
		record.IPAddress = ipAddress.String
		record.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteTrialRepository) CountByFingerprint(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM trial_records WHERE fingerprint = ? AND created_at >= ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, fingerprint, since.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trials by fingerprint: %w", err)
	}
	return count, nil
}

func (r *SQLiteTrialRepository) CountByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM trial_records WHERE ip_address = ? AND created_at >= ?`

	var count int
	err := r.db.QueryRowContext(ctx, query, ip, since.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trials by ip: %w", err)
	}
	return count, nil
}

// nullString converts empty strings to NULL for storage.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
