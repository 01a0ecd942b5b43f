// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/backscroll/lib/credential"
	"github.com/bureau-foundation/backscroll/lib/ref"
	"github.com/bureau-foundation/backscroll/lib/secret"
	"github.com/bureau-foundation/backscroll/messaging"
	"github.com/bureau-foundation/backscroll/scrape"
)

// DefaultDeviceName is the display name of devices Backscroll creates.
const DefaultDeviceName = "backscroll"

// Config configures a Provider.
type Config struct {
	Client *messaging.Client

	// Credentials supplies the account password when a login is needed.
	Credentials credential.Source

	// PasswordCredential names the password in Credentials.
	PasswordCredential string

	// JoinChannels joins each room after resolving it.
	JoinChannels bool

	// DeviceName labels new devices. Defaults to DefaultDeviceName.
	DeviceName string

	Logger *slog.Logger
}

// Provider reads channel history from a Matrix homeserver. It holds at
// most one authenticated session, from Authenticate until Disconnect,
// and is driven by one pipeline run at a time.
type Provider struct {
	client             *messaging.Client
	credentials        credential.Source
	passwordCredential string
	joinChannels       bool
	deviceName         string
	logger             *slog.Logger

	session *messaging.Session
}

var _ scrape.Provider = (*Provider)(nil)

// New returns a Provider.
func New(config Config) (*Provider, error) {
	if config.Client == nil {
		return nil, errors.New("matrixprovider: client is required")
	}
	if config.Credentials == nil {
		return nil, errors.New("matrixprovider: credential source is required")
	}
	if config.PasswordCredential == "" {
		return nil, errors.New("matrixprovider: password credential name is required")
	}
	deviceName := config.DeviceName
	if deviceName == "" {
		deviceName = DefaultDeviceName
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client:             config.Client,
		credentials:        config.Credentials,
		passwordCredential: config.PasswordCredential,
		joinChannels:       config.JoinChannels,
		deviceName:         deviceName,
		logger:             logger,
	}, nil
}

// Authenticate implements scrape.Provider.
func (p *Provider) Authenticate(ctx context.Context, account string, file scrape.SessionFile) (scrape.AuthStatus, error) {
	if p.session != nil {
		return 0, errors.New("matrixprovider: already authenticated; Disconnect first")
	}
	userID, err := ref.ParseUserID(account)
	if err != nil {
		return 0, fmt.Errorf("matrixprovider: account: %w", err)
	}

	var deviceID string
	if file.Present {
		state, err := ReadState(file.Path)
		if err != nil {
			p.logger.Warn("stored session unreadable, logging in", "error", err)
		} else {
			if state.sameAccount(p.client.HomeserverURL(), userID) {
				deviceID = state.DeviceID
			}
			resumed, err := p.resume(ctx, userID, state)
			if err != nil {
				return 0, err
			}
			if resumed {
				return scrape.Authorized, nil
			}
		}
	}

	return p.login(ctx, userID, deviceID, file.Path)
}

// resume verifies the stored token. It reports false, with no error,
// when the token no longer identifies this account on this homeserver.
func (p *Provider) resume(ctx context.Context, userID ref.UserID, state *SessionState) (bool, error) {
	if !state.sameAccount(p.client.HomeserverURL(), userID) {
		p.logger.Info("stored session belongs to another account or homeserver, logging in",
			"stored_user", state.UserID, "stored_homeserver", state.Homeserver)
		return false, nil
	}

	token, err := secret.NewFromString(state.AccessToken)
	if err != nil {
		return false, fmt.Errorf("matrixprovider: protecting stored token: %w", err)
	}
	session, err := p.client.SessionFromToken(state.UserID, state.DeviceID, token)
	if err != nil {
		token.Close()
		return false, err
	}

	whoami, err := session.WhoAmI(ctx)
	if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) || messaging.IsMatrixError(err, messaging.ErrCodeMissingToken) {
		session.Close()
		p.logger.Info("stored access token is no longer valid, logging in", "device_id", state.DeviceID)
		return false, nil
	}
	if err != nil {
		session.Close()
		return false, fmt.Errorf("matrixprovider: verifying stored session: %w", err)
	}
	if whoami.UserID != userID {
		session.Close()
		p.logger.Warn("stored token authenticates a different user, logging in", "token_user", whoami.UserID)
		return false, nil
	}

	p.session = session
	p.logger.Info("resumed matrix session", "user_id", userID, "device_id", state.DeviceID)
	return true, nil
}

func (p *Provider) login(ctx context.Context, userID ref.UserID, deviceID, sessionPath string) (scrape.AuthStatus, error) {
	password, err := p.credentials.Lookup(p.passwordCredential)
	if errors.Is(err, credential.ErrNotFound) {
		p.logger.Warn("no usable session and no password configured", "credential", p.passwordCredential)
		return scrape.Rejected, nil
	}
	if err != nil {
		return 0, fmt.Errorf("matrixprovider: reading password: %w", err)
	}
	defer password.Close()

	session, err := p.client.Login(ctx, messaging.LoginOptions{
		User:       userID.String(),
		Password:   password,
		DeviceID:   deviceID,
		DeviceName: p.deviceName,
	})
	switch {
	case err == nil:
	case messaging.NeedsSecondFactor(err):
		p.logger.Warn("login requires a second factor", "user_id", userID)
		return scrape.NeedsSecondFactor, nil
	case messaging.IsCredentialRejected(err):
		p.logger.Warn("login rejected", "user_id", userID, "error", err)
		return scrape.Rejected, nil
	default:
		return 0, fmt.Errorf("matrixprovider: %w", err)
	}

	state := &SessionState{
		Homeserver:  p.client.HomeserverURL(),
		UserID:      session.UserID(),
		DeviceID:    session.DeviceID(),
		AccessToken: session.AccessToken(),
	}
	if err := WriteState(sessionPath, state); err != nil {
		session.Close()
		return 0, fmt.Errorf("matrixprovider: storing new session: %w", err)
	}

	p.session = session
	return scrape.Authorized, nil
}

// Resolve implements scrape.Provider. Room IDs pass through; aliases
// are looked up in the room directory.
func (p *Provider) Resolve(ctx context.Context, channel string) (string, error) {
	if p.session == nil {
		return "", errors.New("matrixprovider: not authenticated")
	}
	parsed, err := ref.ParseChannel(channel)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scrape.ErrChannelNotFound, err)
	}

	roomID := parsed.RoomID
	if parsed.NeedsResolution() {
		roomID, err = p.session.ResolveAlias(ctx, parsed.Alias)
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			return "", fmt.Errorf("%w: %v", scrape.ErrChannelNotFound, err)
		}
		if err != nil {
			return "", err
		}
	}

	if p.joinChannels {
		if _, err := p.session.JoinRoom(ctx, roomID.String()); err != nil {
			return "", err
		}
	}
	return roomID.String(), nil
}

// FetchHistory implements scrape.Provider. State events are skipped;
// every other timeline event becomes a message. Only m.room.message
// events carry text; the rest (encrypted, reactions, redactions) have
// a nil text.
func (p *Provider) FetchHistory(ctx context.Context, handle string, limit int) ([]scrape.RawMessage, error) {
	if p.session == nil {
		return nil, errors.New("matrixprovider: not authenticated")
	}
	roomID, err := ref.ParseRoomID(handle)
	if err != nil {
		return nil, fmt.Errorf("matrixprovider: %w", err)
	}

	response, err := p.session.RoomMessages(ctx, roomID, messaging.RoomMessagesOptions{
		Direction: "b",
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]scrape.RawMessage, 0, len(response.Chunk))
	encrypted := 0
	for _, event := range response.Chunk {
		if event.StateKey != nil {
			continue
		}
		message := scrape.RawMessage{
			ID:        event.EventID,
			Timestamp: time.UnixMilli(event.OriginServerTS).UTC(),
		}
		switch event.Type {
		case messaging.EventTypeMessage:
			message.Text = event.Body()
		case messaging.EventTypeEncrypted:
			encrypted++
		}
		if event.Sender != "" {
			sender := event.Sender
			message.SenderID = &sender
		}
		messages = append(messages, message)
	}
	if encrypted > 0 {
		p.logger.Debug("encrypted events returned without text",
			"room_id", roomID, "encrypted", encrypted, "messages", len(messages))
	}
	return messages, nil
}

// Disconnect implements scrape.Provider.
func (p *Provider) Disconnect() error {
	p.client.CloseIdleConnections()
	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	return err
}
