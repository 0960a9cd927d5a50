// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

import "strings"

// IdentityAccountTable represents the 'identity.account' table
type IdentityAccountTable struct {
	Table        string
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	IsVerified   string
	CreatedAt    string
	UpdatedAt    string
}

// IdentityAccount is the schema definition for identity.account
var IdentityAccount = IdentityAccountTable{
	Table:        "identity.account",
	ID:           "id",
	Email:        "email",
	PasswordHash: "passwordhash",
	DisplayName:  "displayname",
	IsVerified:   "isverified",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names in scan order
func (t IdentityAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.PasswordHash, t.DisplayName,
		t.IsVerified, t.CreatedAt, t.UpdatedAt,
	}
}

// ColumnList joins [IdentityAccountTable.Columns] for a SELECT or INSERT list.
func (t IdentityAccountTable) ColumnList() string {
	return strings.Join(t.Columns(), ", ")
}
