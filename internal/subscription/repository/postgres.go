package repository

import "database/sql"

var postgresQueries = docQueries{
	schema: `CREATE TABLE IF NOT EXISTS subscriptions (
		product    TEXT  NOT NULL,
		subject_id TEXT  NOT NULL,
		doc        JSONB NOT NULL,
		PRIMARY KEY (product, subject_id)
	)`,
	get: `SELECT doc FROM subscriptions WHERE product = $1 AND subject_id = $2`,
	put: `INSERT INTO subscriptions (product, subject_id, doc) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (product, subject_id) DO UPDATE SET doc = EXCLUDED.doc`,
	// jsonb || jsonb replaces the top-level keys present on the right
	patch:  `UPDATE subscriptions SET doc = doc || $3::jsonb WHERE product = $1 AND subject_id = $2`,
	delete: `DELETE FROM subscriptions WHERE product = $1 AND subject_id = $2`,
	list:   `SELECT doc FROM subscriptions WHERE product = $1 ORDER BY subject_id`,
}

// PostgresStore keeps records as JSONB documents in PostgreSQL.
type PostgresStore struct {
	docStore
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{docStore{db: db, q: postgresQueries}}
}
