// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
)

// MatrixError represents a structured error response from the Matrix homeserver.
// Callers can use errors.As to extract the structured information:
//
//	var matrixErr *MatrixError
//	if errors.As(err, &matrixErr) {
//	    if matrixErr.Code == ErrCodeNotFound { ... }
//	}
type MatrixError struct {
	// Code is the Matrix error code (e.g., "M_FORBIDDEN", "M_UNKNOWN_TOKEN").
	// User-interactive challenges may omit it.
	Code string `json:"errcode"`
	// Message is the human-readable error description from the server.
	Message string `json:"error"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`

	// Flows, Completed and Session are present on 401 responses that
	// start or continue user-interactive authentication.
	Flows     []AuthFlow `json:"flows,omitempty"`
	Completed []string   `json:"completed,omitempty"`
	Session   string     `json:"session,omitempty"`
}

// AuthFlow is one acceptable sequence of authentication stages.
type AuthFlow struct {
	Stages []string `json:"stages"`
}

func (e *MatrixError) Error() string {
	if e.Code == "" && len(e.Flows) > 0 {
		return fmt.Sprintf("matrix: interactive authentication required (%d): %d flows offered", e.StatusCode, len(e.Flows))
	}
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Standard Matrix error codes.
const (
	ErrCodeForbidden       = "M_FORBIDDEN"
	ErrCodeUnknownToken    = "M_UNKNOWN_TOKEN"
	ErrCodeMissingToken    = "M_MISSING_TOKEN"
	ErrCodeUserDeactivated = "M_USER_DEACTIVATED"
	ErrCodeNotFound        = "M_NOT_FOUND"
	ErrCodeLimitExceeded   = "M_LIMIT_EXCEEDED"
	ErrCodeInvalidParam    = "M_INVALID_PARAM"
)

// Authentication stage types.
const (
	StagePassword = "m.login.password"
	StageDummy    = "m.login.dummy"
)

// IsMatrixError checks whether err is a *MatrixError with the given error code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

// NeedsSecondFactor reports whether err is a user-interactive challenge
// that cannot be satisfied by the password alone: every offered flow
// contains a stage (TOTP, SSO, email, ...) other than the password and
// the stages already completed.
func NeedsSecondFactor(err error) bool {
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		return false
	}
	if matrixErr.StatusCode != http.StatusUnauthorized || len(matrixErr.Flows) == 0 {
		return false
	}
	for _, flow := range matrixErr.Flows {
		satisfiable := true
		for _, stage := range flow.Stages {
			if stage == StagePassword || stage == StageDummy || slices.Contains(matrixErr.Completed, stage) {
				continue
			}
			satisfiable = false
			break
		}
		if satisfiable {
			return false
		}
	}
	return true
}

// IsCredentialRejected reports whether err means the homeserver refused
// the credentials themselves (wrong password, deactivated account),
// as opposed to a transport failure or an extra authentication step.
func IsCredentialRejected(err error) bool {
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		return false
	}
	switch matrixErr.Code {
	case ErrCodeForbidden, ErrCodeUserDeactivated, ErrCodeUnknownToken:
		return true
	}
	return matrixErr.StatusCode == http.StatusUnauthorized && !NeedsSecondFactor(err)
}
