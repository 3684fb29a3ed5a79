// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package postgres implements the auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// poolIface abstracts the pgx pool so the repository can be unit tested
// with pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PrincipalRepository implements auth.PrincipalRepository using PostgreSQL.
// Accounts and administrators live in separate tables; the role argument
// on each operation selects the table.
type PrincipalRepository struct {
	pool poolIface
}

// NewPrincipalRepository creates a new PrincipalRepository.
func NewPrincipalRepository(pool poolIface) *PrincipalRepository {
	return &PrincipalRepository{pool: pool}
}

// tableFor resolves a role to its backing table.
func tableFor(role auth.Role) string {
	if role == auth.RoleAdmin {
		return "administrators"
	}
	return "accounts"
}

// columnFor resolves a lookup field to its column name. Fields are a
// closed set; anything else is rejected rather than interpolated.
func columnFor(field auth.Field) (string, error) {
	switch field {
	case auth.FieldUsername:
		return "username", nil
	case auth.FieldEmail:
		return "email", nil
	default:
		return "", oops.Code("PRINCIPAL_INVALID_FIELD").
			Errorf("unknown lookup field: %q", string(field))
	}
}

// FindByField retrieves a principal by an exact, case-sensitive match on
// the given field.
func (r *PrincipalRepository) FindByField(ctx context.Context, role auth.Role, field auth.Field, value string) (*auth.Principal, error) {
	column, err := columnFor(field)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G201: table and column come from closed sets above, not caller input.
	query := fmt.Sprintf(`
		SELECT id, username, email, credential, created_at, updated_at
		FROM %s
		WHERE %s = $1
	`, tableFor(role), column)

	principal, err := scanPrincipal(r.pool.QueryRow(ctx, query, value), role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").
			With(string(field), value).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PRINCIPAL_FIND_FAILED").
			With("operation", "find principal by field").
			With("field", string(field)).
			Wrap(err)
	}
	return principal, nil
}

// Insert stores a new principal in the table its Role implies. A unique
// violation on username or email surfaces as an AUTH_CONFLICT error; the
// per-table constraints backstop the service-level uniqueness check
// within a single collection.
func (r *PrincipalRepository) Insert(ctx context.Context, principal *auth.Principal) error {
	//nolint:gosec // G201: table name comes from a closed set.
	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, email, credential, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tableFor(principal.Role))

	_, err := r.pool.Exec(ctx, query,
		principal.ID.String(),
		principal.Username,
		principal.Email,
		principal.Credential,
		principal.CreatedAt,
		principal.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("AUTH_CONFLICT").
				With("username", principal.Username).
				With("constraint", pgErr.ConstraintName).
				Wrap(err)
		}
		return oops.Code("PRINCIPAL_INSERT_FAILED").
			With("operation", "insert principal").
			With("username", principal.Username).
			Wrap(err)
	}
	return nil
}

// UpdateCredential rewrites the stored credential for a principal in the
// role's table.
func (r *PrincipalRepository) UpdateCredential(ctx context.Context, role auth.Role, id ulid.ULID, credential string) error {
	//nolint:gosec // G201: table name comes from a closed set.
	query := fmt.Sprintf(`
		UPDATE %s SET credential = $2, updated_at = $3
		WHERE id = $1
	`, tableFor(role))

	result, err := r.pool.Exec(ctx, query, id.String(), credential, time.Now())
	if err != nil {
		return oops.Code("PRINCIPAL_UPDATE_CREDENTIAL_FAILED").
			With("operation", "update credential").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanPrincipal scans a single row into a Principal. Callers are
// responsible for handling pgx.ErrNoRows.
func scanPrincipal(row pgx.Row, role auth.Role) (*auth.Principal, error) {
	var (
		idStr      string
		username   string
		email      *string
		credential string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&idStr, &username, &email, &credential, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PRINCIPAL_SCAN_FAILED").
			With("operation", "scan principal").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PRINCIPAL_INVALID_ID").
			With("operation", "parse principal id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Principal{
		ID:         id,
		Username:   username,
		Email:      email,
		Credential: credential,
		Role:       role,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.PrincipalRepository = (*PrincipalRepository)(nil)
