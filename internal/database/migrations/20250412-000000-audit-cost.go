package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250412-000000",
		Description: "Add total cost to audits",
		Up: []string{
			`ALTER TABLE audits ADD COLUMN total_cost_usd REAL NOT NULL DEFAULT 0`,
		},
	})
}
