package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250301-000000",
		Description: "Initial schema",
		Up: []string{
			// Audits - completed citation audits with the full result JSON
			// account_id comes from the auth token (no local accounts table)
			`CREATE TABLE IF NOT EXISTS audits (
				id TEXT PRIMARY KEY,
				account_id TEXT NOT NULL,
				website_url TEXT NOT NULL,
				brand_name TEXT NOT NULL,
				industry TEXT NOT NULL,
				citation_rate REAL NOT NULL DEFAULT 0,
				visibility_score INTEGER NOT NULL DEFAULT 0,
				result_json TEXT NOT NULL,
				created_at TEXT NOT NULL,
				completed_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_audits_account_id ON audits(account_id)`,
			`CREATE INDEX IF NOT EXISTS idx_audits_account_created ON audits(account_id, created_at)`,

			// Audit usage - per-audit token and cost accounting
			`CREATE TABLE IF NOT EXISTS audit_usage (
				id TEXT PRIMARY KEY,
				account_id TEXT NOT NULL,
				audit_id TEXT NOT NULL,
				provider TEXT NOT NULL,
				model TEXT,
				input_tokens INTEGER NOT NULL DEFAULT 0,
				output_tokens INTEGER NOT NULL DEFAULT 0,
				cost_usd REAL NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				FOREIGN KEY (audit_id) REFERENCES audits(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_usage_account_id ON audit_usage(account_id)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_usage_audit_id ON audit_usage(audit_id)`,

			// Trial records - signup attempts the abuse guard reads back
			`CREATE TABLE IF NOT EXISTS trial_records (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				email_norm TEXT NOT NULL,
				fingerprint TEXT,
				ip_address TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_trial_records_email_norm ON trial_records(email_norm)`,
			`CREATE INDEX IF NOT EXISTS idx_trial_records_fingerprint ON trial_records(fingerprint)`,
			`CREATE INDEX IF NOT EXISTS idx_trial_records_ip ON trial_records(ip_address)`,
			`CREATE INDEX IF NOT EXISTS idx_trial_records_created ON trial_records(created_at)`,
		},
	})
}
