// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
)

// pgUniqueViolation is the SQLSTATE raised by a unique index.
const pgUniqueViolation = "23505"

// IsNoRows reports whether err means the queried row does not exist.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
//
// The raw database message is kept in the AppError message because the
// administrator surfaces show "<action> failed: <raw>" verbatim.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if IsNoRows(err) {
		return apperr.NotFound("Record")
	}

	if IsUniqueViolation(err) {
		return apperr.Conflict(action + " failed: duplicate record")
	}

	return apperr.Store(action+" failed: "+err.Error(), err)
}
