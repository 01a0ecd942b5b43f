// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixprovider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bureau-foundation/backscroll/lib/secret"
	"github.com/bureau-foundation/backscroll/messaging"
)

// Logout revokes the access token in state on the homeserver recorded
// in state, which removes its device from the account. A token the
// server no longer recognizes counts as already revoked.
//
// The pipeline never calls Logout; it is for retiring a sealed session
// for good.
func Logout(ctx context.Context, state *SessionState, httpClient *http.Client, logger *slog.Logger) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("matrixprovider: invalid session state: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: state.Homeserver,
		HTTPClient:    httpClient,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	token, err := secret.NewFromString(state.AccessToken)
	if err != nil {
		return fmt.Errorf("matrixprovider: protecting stored token: %w", err)
	}
	session, err := client.SessionFromToken(state.UserID, state.DeviceID, token)
	if err != nil {
		token.Close()
		return err
	}
	defer session.Close()

	err = session.Logout(ctx)
	if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
		logger.Info("stored token already revoked", "user_id", state.UserID, "device_id", state.DeviceID)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("session logged out", "user_id", state.UserID, "device_id", state.DeviceID)
	return nil
}
