// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetRequestMessage is returned for every reachable reset request,
// whether or not the identifier matched a principal, to avoid revealing
// account existence.
const ResetRequestMessage = "If account exists, password reset instructions have been sent"

// ResetConfirmedMessage is returned when a reset completes.
const ResetConfirmedMessage = "Password has been reset successfully"

// ResetService issues and redeems the password reset handshake.
//
// The handshake is deliberately weak, reproduced from the system this
// service replaces: the reset token is the principal's raw id, carries no
// expiry and no single-use marker, and redemption only ever targets the
// accounts collection, so administrator credentials cannot be reset here.
type ResetService struct {
	principals PrincipalRepository
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewResetService creates a ResetService with a no-op logger.
func NewResetService(principals PrincipalRepository, hasher PasswordHasher) (*ResetService, error) {
	if principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &ResetService{
		principals: principals,
		hasher:     hasher,
		logger:     slog.New(slog.DiscardHandler),
	}, nil
}

// NewResetServiceWithLogger creates a ResetService with the provided logger.
func NewResetServiceWithLogger(principals PrincipalRepository, hasher PasswordHasher, logger *slog.Logger) (*ResetService, error) {
	svc, err := NewResetService(principals, hasher)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	svc.logger = logger
	return svc, nil
}

// RequestReset resolves an identifier across accounts then administrators
// and returns the matched principal's id as the reset token. When nothing
// matches it returns an empty token and no error; callers respond with
// the same message either way.
func (s *ResetService) RequestReset(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Username or email is required")
	}

	field := ClassifyIdentifier(identifier)

	var principal *Principal
	for _, role := range []Role{RoleAccount, RoleAdmin} {
		p, err := s.principals.FindByField(ctx, role, field, identifier)
		if err == nil {
			principal = p
			break
		}
		if !errors.Is(err, ErrNotFound) {
			return "", oops.Code("RESET_REQUEST_FAILED").
				With("operation", "find principal").
				Wrap(err)
		}
	}

	if principal == nil {
		// Don't reveal whether the identifier exists.
		return "", nil
	}

	s.logger.Info("reset token issued", "username", principal.Username)

	return principal.ID.String(), nil
}

// ConfirmReset hashes the new password and rewrites the credential of the
// account whose id equals the token. Administrators are never targeted.
func (s *ResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Token and new password are required")
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	id, err := ulid.Parse(token)
	if err != nil {
		return oops.Code("RESET_TOKEN_INVALID").Errorf("Invalid or expired token")
	}

	if err := s.principals.UpdateCredential(ctx, RoleAccount, id, hashed); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").Errorf("Invalid or expired token")
		}
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "update credential").
			Wrap(err)
	}

	s.logger.Info("password reset confirmed", "principal_id", token)

	return nil
}
