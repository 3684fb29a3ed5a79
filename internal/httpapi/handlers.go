// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// Canonical success messages, kept wire-compatible with the system this
// API replaces.
const (
	msgLoginSuccessful = "Login successful"
	msgInternalError   = "An error occurred"
	msgInvalidBody     = "Invalid request body"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type checkUsernameRequest struct {
	Username string `json:"username"`
}

type checkEmailRequest struct {
	Email string `json:"email"`
}

// principalPayload is the public shape of a created principal.
type principalPayload struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.logins.Login(r.Context(), req.Identifier, req.Password, req.Role)
	if err != nil {
		s.countLogin(req.Role, statusLabel(err))
		s.fail(w, r, "login failed", err)
		return
	}

	s.countLogin(req.Role, "success")
	if result.MigratedLegacy && s.metrics != nil {
		s.metrics.LegacyMigrationsTotal.Inc()
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  msgLoginSuccessful,
		"role":     string(result.Role),
		"token":    result.Token,
		"username": result.Username,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	principal, err := s.registrations.Register(r.Context(), req.Username, req.Password, req.Email, req.Role)
	if err != nil {
		s.countRegistration(req.Role, statusLabel(err))
		s.fail(w, r, "registration failed", err)
		return
	}

	message := "Registration successful"
	if principal.Role == auth.RoleAdmin {
		message = "Admin registration successful"
	}

	s.countRegistration(req.Role, "success")
	s.respond(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": message,
		"user": principalPayload{
			ID:       principal.ID.String(),
			Username: principal.Username,
			Email:    principal.Email,
			Role:     string(principal.Role),
		},
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.resets.RequestReset(r.Context(), req.Identifier)
	if err != nil {
		s.countReset("request", statusLabel(err))
		s.fail(w, r, "reset request failed", err)
		return
	}

	payload := map[string]any{
		"success": true,
		"message": auth.ResetRequestMessage,
	}
	if token != "" {
		payload["resetToken"] = token
	}

	s.countReset("request", "success")
	s.respond(w, http.StatusOK, payload)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.resets.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		s.countReset("confirm", statusLabel(err))
		s.fail(w, r, "reset confirmation failed", err)
		return
	}

	s.countReset("confirm", "success")
	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": auth.ResetConfirmedMessage,
	})
}

func (s *Server) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	var req checkUsernameRequest
	if !s.decode(w, r, &req) {
		return
	}

	exists, err := s.registrations.CheckUsername(r.Context(), req.Username)
	if err != nil {
		s.fail(w, r, "username check failed", err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"exists":  exists,
	})
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if !s.decode(w, r, &req) {
		return
	}

	exists, err := s.registrations.CheckEmail(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, "email check failed", err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"exists":  exists,
	})
}

// decode reads the JSON request body into dst. On failure it writes a
// 400 envelope and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": msgInvalidBody,
		})
		return false
	}
	return true
}

// respond writes a JSON envelope with the given status.
func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// fail maps a service error to its HTTP status and envelope. Credential
// failures carry a uniform message; store and oracle faults surface as
// 500 with the diagnostic attached.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		errutil.LogError(s.logger, logMsg, err)
		s.respond(w, status, map[string]any{
			"success": false,
			"message": msgInternalError,
			"error":   err.Error(),
		})
		return
	}

	s.logger.WarnContext(r.Context(), logMsg, "status", status, "reason", err.Error())
	s.respond(w, status, map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch oopsErr.Code() {
	case "AUTH_VALIDATION_FAILED", "AUTH_CONFLICT", "RESET_TOKEN_INVALID":
		return http.StatusBadRequest
	case "AUTH_INVALID_CREDENTIALS":
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// statusLabel maps an error to a metric status label.
func statusLabel(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "error"
	}
	switch oopsErr.Code() {
	case "AUTH_VALIDATION_FAILED":
		return "validation_error"
	case "AUTH_CONFLICT":
		return "conflict"
	case "AUTH_INVALID_CREDENTIALS":
		return "invalid_credentials"
	case "RESET_TOKEN_INVALID":
		return "invalid_token"
	default:
		return "error"
	}
}

func (s *Server) countLogin(role, status string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(string(auth.RoleFor(role)), status).Inc()
	}
}

func (s *Server) countRegistration(role, status string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(string(auth.RoleFor(role)), status).Inc()
	}
}

func (s *Server) countReset(phase, status string) {
	if s.metrics != nil {
		s.metrics.PasswordResetsTotal.WithLabelValues(phase, status).Inc()
	}
}
