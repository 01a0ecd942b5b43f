// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatrixError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &MatrixError{Code: ErrCodeNotFound, StatusCode: http.StatusNotFound})
	if !IsMatrixError(err, ErrCodeNotFound) {
		t.Error("IsMatrixError should see through wrapping")
	}
	if IsMatrixError(err, ErrCodeForbidden) {
		t.Error("IsMatrixError matched the wrong code")
	}
	if IsMatrixError(errors.New("plain"), ErrCodeNotFound) {
		t.Error("IsMatrixError matched a non-Matrix error")
	}
}

func TestNeedsSecondFactor(t *testing.T) {
	challenge := func(completed []string, flows ...[]string) error {
		matrixErr := &MatrixError{StatusCode: http.StatusUnauthorized, Completed: completed}
		for _, stages := range flows {
			matrixErr.Flows = append(matrixErr.Flows, AuthFlow{Stages: stages})
		}
		return matrixErr
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"totp after password", challenge(nil, []string{StagePassword, "m.login.totp"}), true},
		{"sso only", challenge(nil, []string{"m.login.sso"}), true},
		{"password alone satisfies one flow", challenge(nil, []string{"m.login.sso"}, []string{StagePassword}), false},
		{"extra stage already completed", challenge([]string{"m.login.totp"}, []string{StagePassword, "m.login.totp"}), false},
		{"dummy stage", challenge(nil, []string{StageDummy}), false},
		{"401 without flows", &MatrixError{Code: ErrCodeForbidden, StatusCode: http.StatusUnauthorized}, false},
		{"403 with flows", &MatrixError{StatusCode: http.StatusForbidden, Flows: []AuthFlow{{Stages: []string{"m.login.totp"}}}}, false},
		{"not a Matrix error", errors.New("connection refused"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := NeedsSecondFactor(fmt.Errorf("login: %w", test.err)); got != test.want {
				t.Errorf("NeedsSecondFactor() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestIsCredentialRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"forbidden", &MatrixError{Code: ErrCodeForbidden, StatusCode: http.StatusForbidden}, true},
		{"deactivated", &MatrixError{Code: ErrCodeUserDeactivated, StatusCode: http.StatusForbidden}, true},
		{"bare 401", &MatrixError{StatusCode: http.StatusUnauthorized}, true},
		{"rate limited", &MatrixError{Code: ErrCodeLimitExceeded, StatusCode: http.StatusTooManyRequests}, false},
		{"server error", &MatrixError{Code: "M_UNKNOWN", StatusCode: http.StatusInternalServerError}, false},
		{"transport", errors.New("dial tcp: connection refused"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCredentialRejected(test.err); got != test.want {
				t.Errorf("IsCredentialRejected() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestMatrixError_Message(t *testing.T) {
	err := &MatrixError{Code: ErrCodeForbidden, Message: "Invalid password", StatusCode: 403}
	if got := err.Error(); got != "matrix: M_FORBIDDEN (403): Invalid password" {
		t.Errorf("Error() = %q", got)
	}
	challenge := &MatrixError{StatusCode: 401, Flows: []AuthFlow{{Stages: []string{"m.login.totp"}}}}
	if got := challenge.Error(); got != "matrix: interactive authentication required (401): 1 flows offered" {
		t.Errorf("Error() = %q", got)
	}
}

func TestEventBody(t *testing.T) {
	message := Event{Content: map[string]any{"msgtype": "m.text", "body": "hello"}}
	if body := message.Body(); body == nil || *body != "hello" {
		t.Errorf("Body() = %v, want hello", body)
	}

	empty := Event{Content: map[string]any{"body": ""}}
	if body := empty.Body(); body == nil || *body != "" {
		t.Error("an empty body is text, not absent")
	}

	for name, event := range map[string]Event{
		"redacted":    {Content: map[string]any{}},
		"nil content": {},
		"non-string":  {Content: map[string]any{"body": 42.0}},
	} {
		if body := event.Body(); body != nil {
			t.Errorf("%s: Body() = %q, want nil", name, *body)
		}
	}
}
