// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role identifies which collection holds a principal.
type Role string

// Principal roles. Anything other than "admin" resolves to an account.
const (
	RoleAccount Role = "candidate"
	RoleAdmin   Role = "admin"
)

// RoleFor maps a caller-supplied role string to a Role. Only the exact
// string "admin" selects the administrator collection; every other value
// (including the empty string) selects accounts.
func RoleFor(role string) Role {
	if role == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleAccount
}

// Field names an identifier column principals can be looked up by.
type Field string

// Lookup fields.
const (
	FieldUsername Field = "username"
	FieldEmail    Field = "email"
)

// ClassifyIdentifier decides whether a raw identifier is an email or a
// username. An identifier containing '@' is treated as an email; no
// further syntax validation is applied here.
func ClassifyIdentifier(identifier string) Field {
	if strings.Contains(identifier, "@") {
		return FieldEmail
	}
	return FieldUsername
}

// CredentialState classifies a stored credential.
type CredentialState string

// Credential states. Legacy credentials are plaintext secrets that
// predate hash-based storage; they are rewritten to Hashed on the first
// successful login.
const (
	CredentialLegacy CredentialState = "legacy"
	CredentialHashed CredentialState = "hashed"
)

// ClassifyCredential reports which state a stored credential is in.
func ClassifyCredential(credential string, hasher PasswordHasher) CredentialState {
	if hasher.NeedsUpgrade(credential) {
		return CredentialLegacy
	}
	return CredentialHashed
}

// Principal represents an authenticated entity: an account or an
// administrator, depending on Role.
type Principal struct {
	ID         ulid.ULID
	Username   string
	Email      *string
	Credential string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPrincipal creates a validated Principal with a fresh ID. The
// credential must already be hashed; email is optional and may be nil.
func NewPrincipal(username, credential string, email *string, role Role) (*Principal, error) {
	if username == "" {
		return nil, oops.Code("AUTH_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if credential == "" {
		return nil, oops.Code("AUTH_INVALID_CREDENTIAL").Errorf("credential cannot be empty")
	}
	if email != nil && *email == "" {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty when provided")
	}

	now := time.Now()
	return &Principal{
		ID:         ulid.Make(),
		Username:   username,
		Email:      email,
		Credential: credential,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Password policy constraints.
const (
	MinPasswordLength = 8

	// passwordSymbols is the fixed punctuation set accepted by the
	// complexity predicate.
	passwordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

// emailRegex matches a simple local@domain.tld shape. Exhaustive RFC
// validation is deliberately not attempted.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the email has a plausible local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// MeetsComplexity reports whether the password contains at least one
// lowercase letter, one uppercase letter, one digit, and one symbol from
// the fixed punctuation set.
func MeetsComplexity(password string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// PrincipalRepository manages principal persistence. Implementations
// keep accounts and administrators in separate collections; the role
// argument selects which one an operation targets.
type PrincipalRepository interface {
	// FindByField retrieves a principal from the role's collection by an
	// exact, case-sensitive match on the given field. Returns ErrNotFound
	// (wrapped) when no row matches.
	FindByField(ctx context.Context, role Role, field Field, value string) (*Principal, error)

	// Insert stores a new principal in the collection its Role implies.
	Insert(ctx context.Context, principal *Principal) error

	// UpdateCredential rewrites the stored credential for a principal in
	// the role's collection. Returns ErrNotFound (wrapped) when no row
	// was updated.
	UpdateCredential(ctx context.Context, role Role, id ulid.ULID, credential string) error
}
