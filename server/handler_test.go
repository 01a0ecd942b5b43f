// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bureau-foundation/backscroll/scrape"
)

type fetcherFunc func(ctx context.Context) (scrape.Result, error)

func (f fetcherFunc) Run(ctx context.Context) (scrape.Result, error) { return f(ctx) }

func testHandler(fetcher Fetcher) http.Handler {
	return NewHandler(fetcher, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes()
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestHandleRootAndHealth(t *testing.T) {
	handler := testHandler(fetcherFunc(func(context.Context) (scrape.Result, error) {
		t.Error("liveness endpoints must not run the pipeline")
		return nil, nil
	}))

	tests := []struct {
		path  string
		key   string
		value string
	}{
		{"/", "message", "backscroll is running"},
		{"/health", "status", "ok"},
	}
	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			recorder := get(t, handler, test.path)
			if recorder.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", recorder.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body[test.key] != test.value {
				t.Errorf("%s = %q, want %q", test.key, body[test.key], test.value)
			}
		})
	}
}

func TestUnknownPath(t *testing.T) {
	handler := testHandler(fetcherFunc(func(context.Context) (scrape.Result, error) { return nil, nil }))
	if recorder := get(t, handler, "/v2/nothing"); recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", recorder.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := testHandler(fetcherFunc(func(context.Context) (scrape.Result, error) { return nil, nil }))
	recorder := get(t, handler, "/version")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["version"] == "" || body["version"] == nil {
		t.Errorf("version missing from %v", body)
	}
}

func TestHandleFetch_Success(t *testing.T) {
	sender := "@alice:example.org"
	text := "hello"
	handler := testHandler(fetcherFunc(func(context.Context) (scrape.Result, error) {
		return scrape.Result{
			"#news:example.org": {
				{MessageID: "$1", Text: &text, Date: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), SenderID: &sender},
				{MessageID: "$2", Date: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
			},
		}, nil
	}))

	recorder := get(t, handler, "/v1/fetch")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", recorder.Code, recorder.Body)
	}
	var body map[string][]map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	messages := body["#news:example.org"]
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0]["sender_id"] != sender || messages[0]["text"] != text {
		t.Errorf("messages[0] = %v", messages[0])
	}
	if messages[1]["sender_id"] != nil || messages[1]["text"] != nil {
		t.Errorf("messages[1] = %v, want null text and sender", messages[1])
	}
}

func TestHandleFetch_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantChannel string
	}{
		{"two factor", scrape.ErrTwoFactorRequired, http.StatusForbidden, CodeTwoFactorRequired, ""},
		{"rejected", scrape.ErrAuthorizationDenied, http.StatusUnauthorized, CodeUnauthorized, ""},
		{"busy", scrape.ErrBusy, http.StatusConflict, CodeBusy, ""},
		{
			"channel failed",
			&scrape.ChannelError{Channel: "#b:example.org", Stage: scrape.StageFetch, Err: errors.New("boom")},
			http.StatusInternalServerError, CodeChannelFailed, "#b:example.org",
		},
		{
			"wrapped channel failure",
			fmt.Errorf("run: %w", &scrape.ChannelError{Channel: "#c:example.org", Stage: scrape.StageResolve, Err: scrape.ErrChannelNotFound}),
			http.StatusInternalServerError, CodeChannelFailed, "#c:example.org",
		},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := testHandler(fetcherFunc(func(context.Context) (scrape.Result, error) {
				return nil, test.err
			}))
			recorder := get(t, handler, "/v1/fetch")
			if recorder.Code != test.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, test.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Error != test.wantCode {
				t.Errorf("error = %q, want %q", body.Error, test.wantCode)
			}
			if body.Detail == "" {
				t.Error("detail is empty")
			}
			if body.Channel != test.wantChannel {
				t.Errorf("channel = %q, want %q", body.Channel, test.wantChannel)
			}
		})
	}
}

func TestHandleFetch_PassesRequestContext(t *testing.T) {
	type key struct{}
	handler := testHandler(fetcherFunc(func(ctx context.Context) (scrape.Result, error) {
		if ctx.Value(key{}) != "marker" {
			t.Error("fetcher did not receive the request context")
		}
		return scrape.Result{}, nil
	}))
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/fetch", nil)
	request = request.WithContext(context.WithValue(request.Context(), key{}, "marker"))
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", recorder.Code)
	}
}

func TestHandleFetch_MethodNotAllowed(t *testing.T) {
	handler := testHandler(fetcherFunc(func(context.Context) (scrape.Result, error) {
		t.Error("POST must not run the pipeline")
		return nil, nil
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/v1/fetch", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", recorder.Code)
	}
}
