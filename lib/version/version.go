// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"os"
	"runtime"

	"github.com/bureau-foundation/backscroll/lib/binhash"
)

// Set via -ldflags at build time.
var (
	GitCommit = "unknown"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Build is a snapshot of the running binary's identity.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`

	// Digest is the short BLAKE3 digest of the executable, empty when
	// the executable could not be read.
	Digest string `json:"digest,omitempty"`
}

// Current returns the build information for this process.
func Current() Build {
	build := Build{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if digest, err := SelfDigest(); err == nil {
		build.Digest = digest.Short()
	}
	return build
}

// SelfDigest hashes the running executable.
func SelfDigest() (binhash.Digest, error) {
	executable, err := os.Executable()
	if err != nil {
		return binhash.Digest{}, fmt.Errorf("resolving own executable path: %w", err)
	}
	digest, err := binhash.HashFile(executable)
	if err != nil {
		return binhash.Digest{}, fmt.Errorf("hashing own binary at %s: %w", executable, err)
	}
	return digest, nil
}

// Info returns a one-line version string for --version output.
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime)
}

// Full returns Info plus the toolchain, platform and executable digest.
func Full() string {
	build := Current()
	full := fmt.Sprintf("%s\n  Go: %s\n  Platform: %s", Info(), build.GoVersion, build.Platform)
	if build.Digest != "" {
		full += "\n  Digest: " + build.Digest
	}
	return full
}
