// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gatekeeper/internal/platform/database/schema"
	"github.com/taibuivan/gatekeeper/internal/platform/dberr"
)

// Postgres stores documents as JSONB rows in documents.document.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres creates a document store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, table: schema.DocumentsDocument.Table}
}

/*
Read fetches a single document.

Returns:
  - *Document: The stored object
  - error: ErrNotFound when no row matches, or the wrapped driver error
*/
func (repository *Postgres) Read(context context.Context, collection, key string) (*Document, error) {
	query := fmt.Sprintf(`
		SELECT key, fields, create_time, update_time
		FROM %s
		WHERE collection = $1 AND key = $2`, repository.table)

	var document Document
	err := repository.pool.QueryRow(context, query, collection, key).
		Scan(&document.Key, &document.Fields, &document.CreateTime, &document.UpdateTime)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("docstore_read_failed: %w", err)
	}

	if document.Fields == nil {
		document.Fields = map[string]any{}
	}
	return &document, nil
}

/*
Write upserts a document. Merge uses the JSONB concatenation operator so that
only the supplied top-level fields are replaced.
*/
func (repository *Postgres) Write(context context.Context, collection, key string, fields map[string]any, merge bool) error {
	onConflict := "fields = EXCLUDED.fields"
	if merge {
		onConflict = "fields = " + repository.table + ".fields || EXCLUDED.fields"
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (collection, key, fields, create_time, update_time)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (collection, key) DO UPDATE SET %s, update_time = now()`,
		repository.table, onConflict)

	if _, err := repository.pool.Exec(context, query, collection, key, fields); err != nil {
		return fmt.Errorf("docstore_write_failed: %w", err)
	}
	return nil
}

// Update merges fields into an existing document.
func (repository *Postgres) Update(context context.Context, collection, key string, fields map[string]any) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET fields = fields || $3, update_time = now()
		WHERE collection = $1 AND key = $2`, repository.table)

	tag, err := repository.pool.Exec(context, query, collection, key, fields)
	if err != nil {
		return fmt.Errorf("docstore_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (repository *Postgres) Delete(context context.Context, collection, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = $1 AND key = $2`, repository.table)

	tag, err := repository.pool.Exec(context, query, collection, key)
	if err != nil {
		return fmt.Errorf("docstore_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/*
Query returns a whole collection ordered by one top-level field.

The field is compared through its text projection (fields->>name), which orders
the ISO-8601 timestamp strings chronologically. Missing fields sort last.
*/
func (repository *Postgres) Query(context context.Context, collection, orderBy string, direction Direction) ([]Document, error) {
	sortDirection := "ASC"
	if direction == Descending {
		sortDirection = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT key, fields, create_time, update_time
		FROM %s
		WHERE collection = $1
		ORDER BY fields->>$2 %s NULLS LAST, key ASC`, repository.table, sortDirection)

	rows, err := repository.pool.Query(context, query, collection, orderBy)
	if err != nil {
		return nil, fmt.Errorf("docstore_query_failed: %w", err)
	}

	documents, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var document Document
		err := row.Scan(&document.Key, &document.Fields, &document.CreateTime, &document.UpdateTime)
		if document.Fields == nil {
			document.Fields = map[string]any{}
		}
		return document, err
	})
	if err != nil {
		return nil, fmt.Errorf("docstore_query_failed: %w", err)
	}

	return documents, nil
}

// IsNotFound reports whether err is [ErrNotFound].
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
