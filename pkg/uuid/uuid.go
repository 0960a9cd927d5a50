// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for accounts, anonymous
sessions, workspaces and request correlation.

Advantages:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Friendly: B-tree optimal as the identity.account primary key.
  - Compact: 128-bit storage, compatible with standard 'uuid' types.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
//
// If the version 7 generator fails (clock or entropy error) a random v4 is
// returned so callers never have to handle an error for an identifier.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsValid reports whether s parses as a UUID of any version.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
