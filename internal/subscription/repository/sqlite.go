package repository

import "database/sql"

var sqliteQueries = docQueries{
	schema: `CREATE TABLE IF NOT EXISTS subscriptions (
		product    TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		doc        TEXT NOT NULL,
		PRIMARY KEY (product, subject_id)
	)`,
	get: `SELECT doc FROM subscriptions WHERE product = ?1 AND subject_id = ?2`,
	put: `INSERT INTO subscriptions (product, subject_id, doc) VALUES (?1, ?2, ?3)
		ON CONFLICT (product, subject_id) DO UPDATE SET doc = excluded.doc`,
	patch:  `UPDATE subscriptions SET doc = json_patch(doc, ?3) WHERE product = ?1 AND subject_id = ?2`,
	delete: `DELETE FROM subscriptions WHERE product = ?1 AND subject_id = ?2`,
	list:   `SELECT doc FROM subscriptions WHERE product = ?1 ORDER BY subject_id`,
}

// SQLiteStore keeps records as JSON text in a local SQLite file. It suits a
// single instance.
type SQLiteStore struct {
	docStore
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{docStore{db: db, q: sqliteQueries}}
}
