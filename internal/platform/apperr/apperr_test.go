// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
)

/*
TestAppError_Helpers verifies code lookup through wrapped chains.
*/
func TestAppError_Helpers(t *testing.T) {
	wrapped := fmt.Errorf("directory_remove_failed: %w", apperr.Forbidden("Administrator privileges required"))

	assert.True(t, apperr.IsAppError(wrapped))
	assert.True(t, apperr.IsForbidden(wrapped))
	assert.False(t, apperr.IsNotFound(wrapped))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusForbidden, ae.HTTPStatus)

	assert.Nil(t, apperr.As(errors.New("plain")))
}

/*
TestAppError_VerificationRequired ensures the gate message never varies.
*/
func TestAppError_VerificationRequired(t *testing.T) {
	first := apperr.VerificationRequired()
	second := apperr.VerificationRequired()

	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, apperr.VerificationMessage, first.Error())
	assert.Equal(t, apperr.CodeVerificationRequired, first.Code)
}

/*
TestAppError_StoreKeepsCause checks the cause chain and partial flag.
*/
func TestAppError_StoreKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Store("save failed: connection reset", cause)
	err.Partial = true

	assert.ErrorIs(t, err, cause)
	assert.True(t, apperr.IsPartial(err))
	assert.Equal(t, "save failed: connection reset", err.Error())
}
