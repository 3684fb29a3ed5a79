// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token    string
	Username string
	Role     Role

	// MigratedLegacy is true when this login rewrote a legacy plaintext
	// credential to its hashed form.
	MigratedLegacy bool
}

// LoginService authenticates principals and issues session tokens.
type LoginService struct {
	principals PrincipalRepository
	hasher     PasswordHasher
	tokens     TokenIssuer
	logger     *slog.Logger
}

// NewLoginService creates a LoginService with a no-op logger.
func NewLoginService(principals PrincipalRepository, hasher PasswordHasher, tokens TokenIssuer) (*LoginService, error) {
	if principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	return &LoginService{
		principals: principals,
		hasher:     hasher,
		tokens:     tokens,
		logger:     slog.New(slog.DiscardHandler),
	}, nil
}

// NewLoginServiceWithLogger creates a LoginService with the provided logger.
func NewLoginServiceWithLogger(principals PrincipalRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) (*LoginService, error) {
	svc, err := NewLoginService(principals, hasher, tokens)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	svc.logger = logger
	return svc, nil
}

// dummyCredentialHash is used when a principal doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyCredentialHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// errInvalidCredentials returns the uniform authentication failure.
// The message never reveals whether the identifier exists.
func errInvalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("Invalid credentials")
}

// Login resolves an identifier against the collection the caller-declared
// role implies, verifies or lazily migrates the stored credential, and
// issues a session token.
//
// Legacy rows (credential stored as plaintext) are detected by an exact
// byte comparison against the supplied password. That check runs before
// hash verification; on a match the credential is rewritten to its hash
// before the login succeeds, so a second login with the same password
// takes the hash path.
func (s *LoginService) Login(ctx context.Context, identifier, password, role string) (*LoginResult, error) {
	if identifier == "" || password == "" || role == "" {
		return nil, oops.Code("AUTH_VALIDATION_FAILED").
			Errorf("Identifier, password, and role are required")
	}

	r := RoleFor(role)
	field := ClassifyIdentifier(identifier)

	principal, err := s.principals.FindByField(ctx, r, field, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Verify against a dummy hash anyway to keep response time
			// consistent with the found-but-wrong-password case.
			_, _ = s.hasher.Verify(password, dummyCredentialHash) //nolint:errcheck // timing only
			return nil, errInvalidCredentials()
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find principal").
			Wrap(err)
	}

	verified := false
	migrated := false
	if subtle.ConstantTimeCompare([]byte(principal.Credential), []byte(password)) == 1 {
		// Unmigrated legacy row: rewrite the plaintext credential to its
		// hash, then proceed as verified.
		newHash, hashErr := s.hasher.Hash(password)
		if hashErr != nil {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "hash legacy credential").
				Wrap(hashErr)
		}
		if updateErr := s.principals.UpdateCredential(ctx, principal.Role, principal.ID, newHash); updateErr != nil {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "migrate legacy credential").
				Wrap(updateErr)
		}
		principal.Credential = newHash
		verified = true
		migrated = true
		s.logger.Info("migrated legacy credential to hashed form",
			"username", principal.Username,
			"role", string(principal.Role),
		)
	} else if ClassifyCredential(principal.Credential, s.hasher) == CredentialHashed {
		ok, verifyErr := s.hasher.Verify(password, principal.Credential)
		if verifyErr != nil {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "verify password").
				Wrap(verifyErr)
		}
		verified = ok
	}
	// A legacy credential that doesn't byte-match falls through unverified.

	if !verified {
		return nil, errInvalidCredentials()
	}

	token, err := s.tokens.Issue(principal.ID.String(), r, TokenTTL)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.Info("login successful", "username", principal.Username, "role", string(r))

	return &LoginResult{
		Token:          token,
		Username:       principal.Username,
		Role:           r,
		MigratedLegacy: migrated,
	}, nil
}
