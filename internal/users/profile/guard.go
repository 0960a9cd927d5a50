// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
)

// DisabledChecker answers whether an account was disabled in the directory.
// The identity backend consults it on every sign-in.
type DisabledChecker struct {
	documents  docstore.Store
	collection string
}

// NewDisabledChecker reads flags from collection.
func NewDisabledChecker(documents docstore.Store, collection string) *DisabledChecker {
	if collection == "" {
		collection = "users"
	}
	return &DisabledChecker{documents: documents, collection: collection}
}

// IsDisabled reports the isDisabled flag. Accounts without a document are enabled.
func (checker *DisabledChecker) IsDisabled(ctx context.Context, accountID string) (bool, error) {
	document, err := checker.documents.Read(ctx, checker.collection, accountID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("profile_disabled_lookup_failed: %w", err)
	}
	return readFlag(document.Fields, FieldIsDisabled, legacyFieldIsDisabled), nil
}
