// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package docstore is the document store contract behind profiles and the
administrator directory.

A document is a flat JSON object addressed by (collection, key). Writes can
merge into the stored object or replace it; queries return a whole collection
ordered by one field.

Implementations:

  - [Postgres]: a JSONB table, used in every deployed environment.
  - [Memory]: process memory, used by tests and STORAGE_DRIVER=memory.
*/
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read, Update and Delete when the document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Direction is the sort order of a [Store.Query].
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// TimeLayout is the wire format of timestamp fields. Values in this layout sort
// lexicographically in time order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Document is a stored object and its bookkeeping timestamps.
type Document struct {
	Key        string
	Fields     map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// Store is the document store contract.
type Store interface {
	// Read returns the document or ErrNotFound.
	Read(ctx context.Context, collection, key string) (*Document, error)

	// Write creates the document. With merge, existing fields not named in
	// fields are kept; without merge, the stored object is replaced.
	Write(ctx context.Context, collection, key string, fields map[string]any, merge bool) error

	// Update sets the named fields on an existing document or returns ErrNotFound.
	Update(ctx context.Context, collection, key string, fields map[string]any) error

	// Delete removes the document or returns ErrNotFound.
	Delete(ctx context.Context, collection, key string) error

	// Query returns every document of the collection ordered by orderBy.
	// Documents without the field sort last in both directions.
	Query(ctx context.Context, collection, orderBy string, direction Direction) ([]Document, error)
}

// FormatTime renders t in [TimeLayout] (UTC, millisecond precision).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a timestamp field. It accepts [TimeLayout] and RFC 3339 and
// returns the zero time for anything else.
func ParseTime(value any) time.Time {
	text, ok := value.(string)
	if !ok || text == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(TimeLayout, text); err == nil {
		return parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return parsed.UTC()
	}
	return time.Time{}
}
