// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxBodySize bounds JSON body reads: 32 MB. A history page of a few
// hundred events is well under a megabyte.
const MaxBodySize int64 = 32 << 20

// ReadResponse reads an HTTP body up to MaxBodySize bytes. A body that
// reaches the limit is reported as an error rather than silently truncated.
func ReadResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxBodySize)
	}
	return data, nil
}

// DecodeResponse reads a bounded body and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody returns an error response body as a string for diagnostics.
// Read errors yield whatever was read before the failure.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return string(data)
}

// WriteJSON encodes v as the response body with the given status.
// Encoding failures after the header is written can only be logged by
// the caller, so they are returned rather than retried.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
