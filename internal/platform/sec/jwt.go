// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. The identity backend uses it for password hashes and
// one-time tokens; the HTTP layer uses it to sign the workspace cookie.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WorkspaceClaims represents the payload embedded inside a workspace cookie.
//
// The workspace identifier is the only custom claim; everything else about the
// browser context lives server-side.
type WorkspaceClaims struct {
	jwt.RegisteredClaims

	WorkspaceID string `json:"wid"`
}

// TokenService handles generation and verification of workspace tokens using HS256.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from the shared session secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 8 {
		return nil, fmt.Errorf("sec: session secret must be at least 8 characters")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// GenerateWorkspaceToken signs a token bound to the given workspace.
func (service *TokenService) GenerateWorkspaceToken(workspaceID string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := WorkspaceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   workspaceID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		WorkspaceID: workspaceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyWorkspaceToken checks the signature, issuer and expiry of a workspace token.
func (service *TokenService) VerifyWorkspaceToken(tokenString string) (*WorkspaceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WorkspaceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*WorkspaceClaims)
	if !ok || !token.Valid || claims.WorkspaceID == "" {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
