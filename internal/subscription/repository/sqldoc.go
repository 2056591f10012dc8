package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

// docQueries holds one SQL dialect of the document table. Every statement
// takes product, subject_id and doc as parameters 1, 2 and 3.
type docQueries struct {
	schema string
	get    string
	put    string
	patch  string
	delete string
	list   string
}

// docStore keeps each record as a JSON document keyed by
// (product, subject_id) in a SQL table.
type docStore struct {
	db *sql.DB
	q  docQueries
}

// EnsureSchema creates the subscriptions table when it does not exist.
func (r *docStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.q.schema); err != nil {
		return unavailable("schema", err)
	}
	return nil
}

func (r *docStore) Get(ctx context.Context, scope, subjectID string) (*subscription.Record, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, r.q.get, scope, subjectID).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable("get", err)
	}

	rec := &subscription.Record{}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, unavailable("decode", err)
	}
	return rec, nil
}

func (r *docStore) Put(ctx context.Context, scope, subjectID string, rec *subscription.Record) error {
	stored := *rec
	stored.SubjectID = subjectID
	doc, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	// lib/pq sends []byte as bytea, so documents go over the wire as text
	if _, err := r.db.ExecContext(ctx, r.q.put, scope, subjectID, string(doc)); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (r *docStore) Patch(ctx context.Context, scope, subjectID string, p subscription.Patch) error {
	fields, err := json.Marshal(p.Fields())
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, r.q.patch, scope, subjectID, string(fields))
	if err != nil {
		return unavailable("patch", err)
	}
	return notFoundIfUntouched(res)
}

func (r *docStore) Delete(ctx context.Context, scope, subjectID string) error {
	res, err := r.db.ExecContext(ctx, r.q.delete, scope, subjectID)
	if err != nil {
		return unavailable("delete", err)
	}
	return notFoundIfUntouched(res)
}

func (r *docStore) List(ctx context.Context, scope string) ([]subscription.Record, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list, scope)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	records := []subscription.Record{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, unavailable("list", err)
		}
		var rec subscription.Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, unavailable("decode", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return records, nil
}

func notFoundIfUntouched(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return subscription.ErrNotFound
	}
	return nil
}
