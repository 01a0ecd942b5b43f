// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/backscroll/lib/clock"
	"github.com/bureau-foundation/backscroll/vault"
)

// DefaultHistoryLimit is the number of newest messages read per channel
// when Config.HistoryLimit is zero.
const DefaultHistoryLimit = 50

// SessionVault is the part of *vault.Vault the pipeline uses.
type SessionVault interface {
	Unseal() vault.Handle
	Seal(vault.Handle) (vault.Record, error)
	Discard(vault.Handle) error
}

// Config configures a Pipeline.
type Config struct {
	Provider Provider
	Vault    SessionVault

	// Account identifies the authenticating account to the provider.
	Account string

	// Channels are read strictly in this order.
	Channels []string

	// HistoryLimit bounds the messages per channel. Zero means
	// DefaultHistoryLimit.
	HistoryLimit int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Pipeline runs the scrape. It is safe for concurrent use; concurrent
// runs are refused with ErrBusy.
type Pipeline struct {
	provider     Provider
	vault        SessionVault
	account      string
	channels     []string
	historyLimit int
	clock        clock.Clock
	logger       *slog.Logger

	running sync.Mutex
}

// Report is the complete outcome of a successful run.
type Report struct {
	Result Result

	// Record is the newly sealed session, nil when sealing failed.
	Record vault.Record

	// SealError is why sealing failed. The run still succeeded.
	SealError error

	// FreshSession is true when the run started without a usable
	// stored session.
	FreshSession bool

	Elapsed time.Duration
}

// New validates the configuration and returns a Pipeline.
func New(config Config) (*Pipeline, error) {
	if config.Provider == nil {
		return nil, errors.New("scrape: provider is required")
	}
	if config.Vault == nil {
		return nil, errors.New("scrape: vault is required")
	}
	if config.Account == "" {
		return nil, errors.New("scrape: account is required")
	}
	if len(config.Channels) == 0 {
		return nil, errors.New("scrape: at least one channel is required")
	}
	historyLimit := config.HistoryLimit
	if historyLimit == 0 {
		historyLimit = DefaultHistoryLimit
	}
	if historyLimit < 0 {
		return nil, fmt.Errorf("scrape: history limit must be positive, got %d", historyLimit)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		provider:     config.Provider,
		vault:        config.Vault,
		account:      config.Account,
		channels:     append([]string(nil), config.Channels...),
		historyLimit: historyLimit,
		clock:        clk,
		logger:       logger,
	}, nil
}

// Channels returns the configured channel list.
func (p *Pipeline) Channels() []string {
	return append([]string(nil), p.channels...)
}

// Run executes one scrape and returns its result.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	report, err := p.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return report.Result, nil
}

// Execute executes one scrape and returns the full report, including
// the sealed record.
func (p *Pipeline) Execute(ctx context.Context) (*Report, error) {
	return p.execute(ctx, p.channels)
}

// Authenticate runs the session lifecycle without reading any channel:
// unseal, authenticate, disconnect, seal. It establishes or refreshes
// the sealed session, and reports the same authentication errors as
// Execute.
func (p *Pipeline) Authenticate(ctx context.Context) (*Report, error) {
	return p.execute(ctx, nil)
}

func (p *Pipeline) execute(ctx context.Context, channels []string) (*Report, error) {
	if !p.running.TryLock() {
		return nil, ErrBusy
	}
	defer p.running.Unlock()

	start := p.clock.Now()
	handle := p.vault.Unseal()
	report := &Report{FreshSession: !handle.Present()}

	result, err := p.collect(ctx, handle, channels)
	p.disconnect()

	if err != nil {
		if discardErr := p.vault.Discard(handle); discardErr != nil {
			p.logger.Error("discarding plaintext session after failed run", "error", discardErr)
		}
		p.logger.Warn("scrape failed",
			"error", err,
			"elapsed", clock.Since(p.clock, start))
		return nil, err
	}

	report.Result = result
	record, err := p.vault.Seal(handle)
	if err != nil {
		report.SealError = err
		p.logger.Error("session could not be sealed; the next run will authenticate from credentials",
			"error", err)
	} else {
		report.Record = record
	}

	report.Elapsed = clock.Since(p.clock, start)
	p.logger.Info("scrape complete",
		"channels", len(result),
		"messages", result.Count(),
		"fresh_session", report.FreshSession,
		"elapsed", report.Elapsed)
	return report, nil
}

// collect authenticates and reads every channel, stopping at the first
// failure.
func (p *Pipeline) collect(ctx context.Context, handle vault.Handle, channels []string) (Result, error) {
	session := SessionFile{Path: handle.Path, Present: handle.Present()}
	status, err := p.provider.Authenticate(ctx, p.account, session)
	if err != nil {
		return nil, fmt.Errorf("scrape: authenticating %s: %w", p.account, err)
	}
	switch status {
	case Authorized:
	case NeedsSecondFactor:
		return nil, ErrTwoFactorRequired
	case Rejected:
		return nil, ErrAuthorizationDenied
	default:
		return nil, fmt.Errorf("scrape: provider returned unknown authentication status %s", status)
	}
	p.logger.Info("authenticated", "account", p.account, "resumed", session.Present)

	result := make(Result, len(channels))
	for _, channel := range channels {
		entity, err := p.provider.Resolve(ctx, channel)
		if err != nil {
			return nil, &ChannelError{Channel: channel, Stage: StageResolve, Err: err}
		}

		raw, err := p.provider.FetchHistory(ctx, entity, p.historyLimit)
		if err != nil {
			return nil, &ChannelError{Channel: channel, Stage: StageFetch, Err: err}
		}
		if len(raw) > p.historyLimit {
			raw = raw[:p.historyLimit]
		}

		messages := make([]Message, len(raw))
		for index, message := range raw {
			messages[index] = normalize(message)
		}
		result[channel] = messages
		p.logger.Debug("channel read", "channel", channel, "messages", len(messages))
	}
	return result, nil
}

func (p *Pipeline) disconnect() {
	if err := p.provider.Disconnect(); err != nil {
		p.logger.Warn("disconnecting provider", "error", err)
	}
}
