// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// maxIdentifierLength is the Matrix limit on user IDs, room IDs, and
// aliases, sigil and server included.
const maxIdentifierLength = 255

// splitIdentifier validates "<sigil>localpart:server" and returns the
// two halves. The localpart of a room ID is opaque, so only structure
// is checked here; the server name may itself contain ':' for a port.
func splitIdentifier(raw string, sigil byte, label string) (localpart, server string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("empty %s", label)
	}
	if len(raw) > maxIdentifierLength {
		return "", "", fmt.Errorf("%s is %d bytes, maximum is %d: %q", label, len(raw), maxIdentifierLength, raw)
	}
	if raw[0] != sigil {
		return "", "", fmt.Errorf("%s must start with %q: %q", label, sigil, raw)
	}

	colonIndex := strings.IndexByte(raw, ':')
	if colonIndex < 0 {
		return "", "", fmt.Errorf("%s missing ':server' suffix: %q", label, raw)
	}
	localpart = raw[1:colonIndex]
	server = raw[colonIndex+1:]
	if localpart == "" {
		return "", "", fmt.Errorf("%s has empty localpart: %q", label, raw)
	}
	if server == "" {
		return "", "", fmt.Errorf("%s has empty server name: %q", label, raw)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", "", fmt.Errorf("%s contains whitespace: %q", label, raw)
	}
	return localpart, server, nil
}
