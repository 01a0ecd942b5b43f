// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"net/http"
	"testing"

	"github.com/bureau-foundation/backscroll/lib/ref"
	"github.com/bureau-foundation/backscroll/lib/secret"
)

// testSession returns a Session against handler that authenticates with
// the token "syt_test".
func testSession(t *testing.T, handler http.HandlerFunc) *Session {
	t.Helper()
	client := testClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != "Bearer syt_test" {
			writeJSON(writer, http.StatusUnauthorized, map[string]string{
				"errcode": ErrCodeMissingToken,
				"error":   "bad authorization header " + got,
			})
			return
		}
		handler(writer, request)
	}))
	token, err := secret.NewFromString("syt_test")
	if err != nil {
		t.Fatal(err)
	}
	session, err := client.SessionFromToken(ref.UserID{}, "DEVICE", token)
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func TestWhoAmI(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/account/whoami" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		writeJSON(writer, http.StatusOK, map[string]string{
			"user_id":   "@reader:example.org",
			"device_id": "DEVICE",
		})
	})

	response, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	if response.UserID.String() != "@reader:example.org" || response.DeviceID != "DEVICE" {
		t.Errorf("WhoAmI = %+v", response)
	}
}

func TestWhoAmI_UnknownToken(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusUnauthorized, map[string]any{
			"errcode":     ErrCodeUnknownToken,
			"error":       "Access token has expired",
			"soft_logout": false,
		})
	})

	_, err := session.WhoAmI(context.Background())
	if !IsMatrixError(err, ErrCodeUnknownToken) {
		t.Errorf("WhoAmI error = %v, want M_UNKNOWN_TOKEN", err)
	}
}

func TestResolveAlias(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		// The alias is path-escaped exactly once.
		if request.URL.RawPath != "/_matrix/client/v3/directory/room/%23news:example.org" &&
			request.URL.EscapedPath() != "/_matrix/client/v3/directory/room/%23news:example.org" {
			t.Errorf("unexpected path: %s", request.URL.EscapedPath())
		}
		writeJSON(writer, http.StatusOK, map[string]any{
			"room_id": "!news:example.org",
			"servers": []string{"example.org"},
		})
	})

	roomID, err := session.ResolveAlias(context.Background(), ref.MustParseRoomAlias("#news:example.org"))
	if err != nil {
		t.Fatalf("ResolveAlias failed: %v", err)
	}
	if roomID.String() != "!news:example.org" {
		t.Errorf("room ID = %q", roomID)
	}
}

func TestResolveAlias_NotFound(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusNotFound, map[string]string{
			"errcode": ErrCodeNotFound,
			"error":   "Room alias not found",
		})
	})

	_, err := session.ResolveAlias(context.Background(), ref.MustParseRoomAlias("#missing:example.org"))
	if !IsMatrixError(err, ErrCodeNotFound) {
		t.Errorf("error = %v, want M_NOT_FOUND", err)
	}
}

func TestJoinRoom(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", request.Method)
		}
		if request.URL.EscapedPath() != "/_matrix/client/v3/join/%21news:example.org" {
			t.Errorf("unexpected path: %s", request.URL.EscapedPath())
		}
		writeJSON(writer, http.StatusOK, map[string]string{"room_id": "!news:example.org"})
	})

	roomID, err := session.JoinRoom(context.Background(), "!news:example.org")
	if err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}
	if roomID.String() != "!news:example.org" {
		t.Errorf("room ID = %q", roomID)
	}
}

func TestRoomMessages(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Get("dir") != "b" {
			t.Errorf("dir = %q, want b", query.Get("dir"))
		}
		if query.Get("limit") != "50" {
			t.Errorf("limit = %q, want 50", query.Get("limit"))
		}
		if query.Has("from") {
			t.Error("from should be omitted for the newest page")
		}
		writeJSON(writer, http.StatusOK, map[string]any{
			"start": "t1",
			"end":   "t0",
			"chunk": []map[string]any{
				{
					"event_id":         "$newest",
					"type":             EventTypeMessage,
					"sender":           "@alice:example.org",
					"origin_server_ts": 1700000000000,
					"content":          map[string]any{"msgtype": "m.text", "body": "second"},
				},
				{
					"event_id":         "$older",
					"type":             EventTypeMessage,
					"sender":           "@bob:example.org",
					"origin_server_ts": 1699999990000,
					"content":          map[string]any{},
				},
			},
		})
	})

	roomID, err := ref.ParseRoomID("!news:example.org")
	if err != nil {
		t.Fatal(err)
	}
	response, err := session.RoomMessages(context.Background(), roomID, RoomMessagesOptions{Limit: 50})
	if err != nil {
		t.Fatalf("RoomMessages failed: %v", err)
	}
	if len(response.Chunk) != 2 {
		t.Fatalf("got %d events, want 2", len(response.Chunk))
	}
	if response.Chunk[0].EventID != "$newest" || *response.Chunk[0].Body() != "second" {
		t.Errorf("first event = %+v", response.Chunk[0])
	}
	if response.Chunk[1].Body() != nil {
		t.Error("redacted event should have no body")
	}
}

func TestLogout(t *testing.T) {
	called := false
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/logout" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		called = true
		writeJSON(writer, http.StatusOK, map[string]any{})
	})

	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if !called {
		t.Error("logout endpoint not called")
	}
}
