// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bureau-foundation/backscroll/lib/netutil"
	"github.com/bureau-foundation/backscroll/lib/version"
	"github.com/bureau-foundation/backscroll/scrape"
)

// Fetcher runs one scrape. *scrape.Pipeline implements it.
type Fetcher interface {
	Run(ctx context.Context) (scrape.Result, error)
}

// Error codes returned in ErrorResponse.Error.
const (
	CodeTwoFactorRequired = "two_factor_required"
	CodeUnauthorized      = "unauthorized"
	CodeChannelFailed     = "channel_failed"
	CodeBusy              = "busy"
	CodeInternal          = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Detail  string `json:"detail"`
	Channel string `json:"channel,omitempty"`
}

// Handler serves the HTTP routes.
type Handler struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewHandler returns a Handler that runs fetcher on each fetch request.
func NewHandler(fetcher Fetcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{fetcher: fetcher, logger: logger}
}

// Routes returns the request multiplexer.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /version", h.HandleVersion)
	mux.HandleFunc("GET /v1/fetch", h.HandleFetch)
	return mux
}

// HandleRoot is the liveness banner.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "backscroll is running"})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleVersion reports the build.
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, version.Current())
}

// HandleFetch runs the pipeline once and returns the Scrape Result.
func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, err := h.fetcher.Run(r.Context())
	if err != nil {
		status, response := classify(err)
		h.logger.Warn("fetch failed",
			"status", status,
			"error_code", response.Error,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		h.writeJSON(w, status, response)
		return
	}

	h.logger.Info("fetch completed",
		"channels", len(result),
		"messages", result.Count(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// classify maps a pipeline error to a status and response body.
func classify(err error) (int, ErrorResponse) {
	var channelErr *scrape.ChannelError
	switch {
	case errors.Is(err, scrape.ErrTwoFactorRequired):
		return http.StatusForbidden, ErrorResponse{
			Error:  CodeTwoFactorRequired,
			Detail: "the account requires a second authentication factor; complete login with the CLI",
		}
	case errors.Is(err, scrape.ErrAuthorizationDenied):
		return http.StatusUnauthorized, ErrorResponse{
			Error:  CodeUnauthorized,
			Detail: "the homeserver rejected the account credentials",
		}
	case errors.Is(err, scrape.ErrBusy):
		return http.StatusConflict, ErrorResponse{
			Error:  CodeBusy,
			Detail: "a fetch is already in progress",
		}
	case errors.As(err, &channelErr):
		return http.StatusInternalServerError, ErrorResponse{
			Error:   CodeChannelFailed,
			Detail:  channelErr.Error(),
			Channel: channelErr.Channel,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:  CodeInternal,
			Detail: err.Error(),
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, value any) {
	if err := netutil.WriteJSON(w, status, value); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
