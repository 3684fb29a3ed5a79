// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// RegistrationService validates new-principal input and enforces
// cross-collection uniqueness before creation.
type RegistrationService struct {
	principals PrincipalRepository
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewRegistrationService creates a RegistrationService with a no-op logger.
func NewRegistrationService(principals PrincipalRepository, hasher PasswordHasher) (*RegistrationService, error) {
	if principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &RegistrationService{
		principals: principals,
		hasher:     hasher,
		logger:     slog.New(slog.DiscardHandler),
	}, nil
}

// NewRegistrationServiceWithLogger creates a RegistrationService with the provided logger.
func NewRegistrationServiceWithLogger(principals PrincipalRepository, hasher PasswordHasher, logger *slog.Logger) (*RegistrationService, error) {
	svc, err := NewRegistrationService(principals, hasher)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	svc.logger = logger
	return svc, nil
}

// Register validates input, enforces username and email uniqueness across
// both collections, and creates a principal in the collection the role
// implies. The first validation failure wins. No token is issued; the
// caller must subsequently log in.
//
// An empty email means none was supplied. The two-query uniqueness check
// is not transactional; two racing registrations can slip past it, the
// same residual race the per-collection store constraints then backstop
// only within a single collection.
func (s *RegistrationService) Register(ctx context.Context, username, password, email, role string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Username and password are required")
	}
	if len(password) < MinPasswordLength {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Password must be at least 8 characters long")
	}
	if !MeetsComplexity(password) {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Password must include at least one uppercase letter, one lowercase letter, one number, and one special character")
	}
	if email != "" && !ValidEmail(email) {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Invalid email format")
	}

	taken, err := s.existsInEitherCollection(ctx, FieldUsername, username)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check username uniqueness").
			Wrap(err)
	}
	if taken {
		return nil, oops.Code("AUTH_CONFLICT").Errorf("Username already exists")
	}

	if email != "" {
		taken, err = s.existsInEitherCollection(ctx, FieldEmail, email)
		if err != nil {
			return nil, oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "check email uniqueness").
				Wrap(err)
		}
		if taken {
			return nil, oops.Code("AUTH_CONFLICT").Errorf("Email already exists")
		}
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}

	principal, err := NewPrincipal(username, hashed, emailPtr, RoleFor(role))
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "construct principal").
			Wrap(err)
	}

	if err := s.principals.Insert(ctx, principal); err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert principal").
			With("username", username).
			Wrap(err)
	}

	s.logger.Info("principal registered",
		"username", principal.Username,
		"role", string(principal.Role),
	)

	return principal, nil
}

// CheckUsername reports whether a username exists in either collection.
func (s *RegistrationService) CheckUsername(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, oops.Code("AUTH_VALIDATION_FAILED").Errorf("Username is required")
	}
	exists, err := s.existsInEitherCollection(ctx, FieldUsername, username)
	if err != nil {
		return false, oops.Code("AUTH_CHECK_FAILED").
			With("operation", "check username").
			Wrap(err)
	}
	return exists, nil
}

// CheckEmail reports whether an email exists in either collection.
func (s *RegistrationService) CheckEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, oops.Code("AUTH_VALIDATION_FAILED").Errorf("Email is required")
	}
	exists, err := s.existsInEitherCollection(ctx, FieldEmail, email)
	if err != nil {
		return false, oops.Code("AUTH_CHECK_FAILED").
			With("operation", "check email").
			Wrap(err)
	}
	return exists, nil
}

// existsInEitherCollection queries accounts then administrators for an
// exact match on the given field.
func (s *RegistrationService) existsInEitherCollection(ctx context.Context, field Field, value string) (bool, error) {
	for _, role := range []Role{RoleAccount, RoleAdmin} {
		_, err := s.principals.FindByField(ctx, role, field, value)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}
