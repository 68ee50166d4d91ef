package database

import "fmt"

// Schema statements, applied in order at startup. Statements use
// IF NOT EXISTS so repeated startups are safe; there is no versioned
// migration history for a single-user database.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL DEFAULT 'long',
		setup TEXT,
		session TEXT,
		entry_trigger TEXT,
		location TEXT,
		initial_emotion TEXT,
		entry_price REAL,
		exit_price REAL,
		quantity REAL,
		pnl REAL,
		outcome TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		notes TEXT,
		opened_at INTEGER NOT NULL,
		closed_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_setup ON trades(setup)`,

	`CREATE TABLE IF NOT EXISTS lesson_categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS lessons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category_id INTEGER REFERENCES lesson_categories(id),
		conditions TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		learned_at TEXT NOT NULL,
		stats_before TEXT,
		trade_count_before INTEGER,
		stats_after TEXT,
		trade_count_after INTEGER,
		validation_note TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lessons_status ON lessons(status)`,

	`CREATE TABLE IF NOT EXISTS daily_outlooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		bias TEXT,
		key_levels TEXT,
		plan TEXT,
		emotion TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS daily_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		summary TEXT,
		followed_plan INTEGER,
		mistakes TEXT,
		wins TEXT,
		rating INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

// Migrate creates all tables and indexes
func (db *DB) Migrate() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
