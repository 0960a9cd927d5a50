// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/platform/sec"
)

/*
TestTokenService_RoundTrip signs and verifies a workspace token.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService("test-secret-value", "gatekeeper")
	require.NoError(t, err)

	token, err := service.GenerateWorkspaceToken("ws-1", time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyWorkspaceToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ws-1", claims.WorkspaceID)
}

/*
TestTokenService_RejectsForeignSecret ensures a cookie signed elsewhere is refused.
*/
func TestTokenService_RejectsForeignSecret(t *testing.T) {
	issuer, err := sec.NewTokenService("first-secret-value", "gatekeeper")
	require.NoError(t, err)
	verifier, err := sec.NewTokenService("second-secret-value", "gatekeeper")
	require.NoError(t, err)

	token, err := issuer.GenerateWorkspaceToken("ws-1", time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyWorkspaceToken(token)
	assert.Error(t, err)
}

/*
TestTokenService_RejectsExpired checks the expiry claim.
*/
func TestTokenService_RejectsExpired(t *testing.T) {
	service, err := sec.NewTokenService("test-secret-value", "gatekeeper")
	require.NoError(t, err)

	token, err := service.GenerateWorkspaceToken("ws-1", -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyWorkspaceToken(token)
	assert.Error(t, err)
}

/*
TestPasswordHash verifies bcrypt hashing and comparison.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("battery staple", hash))
}

/*
TestSecureToken checks uniqueness and the at-rest digest.
*/
func TestSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, sec.HashToken(first), 64)
	assert.Equal(t, sec.HashToken(first), sec.HashToken(first))
}
