// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth provides the credential-resolution core for Gatehouse.
//
// # Domain Types
//
// A Principal is any authenticated entity. Principals come in two kinds,
// distinguished by Role: ordinary accounts and administrators. The two
// kinds live in separate collections but share a single identifier
// namespace; RoleFor maps a caller-supplied role string to the collection
// that will be queried.
//
// Stored credentials are in one of two states: Hashed (an argon2id PHC
// string produced by the password hasher) or Legacy (a plaintext secret
// predating hash-based storage). Legacy credentials are migrated to
// hashed form lazily, on the first successful login.
//
// # Services
//
// Service types coordinate domain operations:
//   - LoginService - identifier resolution, legacy migration, verification, token issuance
//   - RegistrationService - input validation, cross-collection uniqueness, creation
//   - ResetService - the password reset request/confirm handshake
//
// Services are created with New*Service constructors that validate
// dependencies.
package auth
