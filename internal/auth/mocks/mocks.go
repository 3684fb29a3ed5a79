// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// testingT is the subset of *testing.T the mock constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockPrincipalRepository is a mock implementation of auth.PrincipalRepository.
type MockPrincipalRepository struct {
	mock.Mock
}

// NewMockPrincipalRepository creates a MockPrincipalRepository that
// asserts its expectations at test cleanup.
func NewMockPrincipalRepository(t testingT) *MockPrincipalRepository {
	m := &MockPrincipalRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindByField mocks auth.PrincipalRepository.FindByField.
func (m *MockPrincipalRepository) FindByField(ctx context.Context, role auth.Role, field auth.Field, value string) (*auth.Principal, error) {
	args := m.Called(ctx, role, field, value)
	var principal *auth.Principal
	if v := args.Get(0); v != nil {
		principal = v.(*auth.Principal)
	}
	return principal, args.Error(1)
}

// Insert mocks auth.PrincipalRepository.Insert.
func (m *MockPrincipalRepository) Insert(ctx context.Context, principal *auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// UpdateCredential mocks auth.PrincipalRepository.UpdateCredential.
func (m *MockPrincipalRepository) UpdateCredential(ctx context.Context, role auth.Role, id ulid.ULID, credential string) error {
	args := m.Called(ctx, role, id, credential)
	return args.Error(0)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its
// expectations at test cleanup.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash mocks auth.PasswordHasher.Hash.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify mocks auth.PasswordHasher.Verify.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// NeedsUpgrade mocks auth.PasswordHasher.NeedsUpgrade.
func (m *MockPasswordHasher) NeedsUpgrade(credential string) bool {
	args := m.Called(credential)
	return args.Bool(0)
}

// MockTokenIssuer is a mock implementation of auth.TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

// NewMockTokenIssuer creates a MockTokenIssuer that asserts its
// expectations at test cleanup.
func NewMockTokenIssuer(t testingT) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue mocks auth.TokenIssuer.Issue.
func (m *MockTokenIssuer) Issue(principalID string, role auth.Role, ttl time.Duration) (string, error) {
	args := m.Called(principalID, role, ttl)
	return args.String(0), args.Error(1)
}

// Compile-time interface checks.
var (
	_ auth.PrincipalRepository = (*MockPrincipalRepository)(nil)
	_ auth.PasswordHasher      = (*MockPasswordHasher)(nil)
	_ auth.TokenIssuer         = (*MockTokenIssuer)(nil)
)
