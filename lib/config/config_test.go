// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const minimalYAML = `
paths:
  state: /var/lib/backscroll
matrix:
  homeserver_url: https://matrix.example.org
  user_id: "@reader:example.org"
  channels:
    - "#announcements:example.org"
    - "!abcdef:example.org"
`

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Matrix.HistoryLimit != 50 {
		t.Errorf("expected history_limit=50, got %d", cfg.Matrix.HistoryLimit)
	}
	if cfg.Vault.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Vault.Compression)
	}
	if !cfg.Vault.GenerateKey {
		t.Error("expected generate_key=true for development")
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when BACKSCROLL_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "BACKSCROLL_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv(EnvVar, writeConfig(t, "backscroll.yaml", minimalYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if len(cfg.Matrix.Channels) != 2 || cfg.Matrix.Channels[0] != "#announcements:example.org" {
		t.Errorf("channels = %v", cfg.Matrix.Channels)
	}
	if cfg.Vault.KeyFile != "/var/lib/backscroll/vault.key" {
		t.Errorf("key_file = %q, want it expanded under the state directory", cfg.Vault.KeyFile)
	}
	if cfg.SessionRecordPath() != "/var/lib/backscroll/session.sealed" {
		t.Errorf("SessionRecordPath() = %q", cfg.SessionRecordPath())
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeConfig(t, "backscroll.jsonc", `{
  // The account that reads the channels.
  "matrix": {
    "homeserver_url": "http://localhost:6167",
    "user_id": "@reader:localhost",
    "channels": ["#news:localhost",],
    "history_limit": 20,
  },
  "paths": {"state": "/tmp/backscroll"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.Matrix.HistoryLimit != 20 {
		t.Errorf("history_limit = %d, want 20", cfg.Matrix.HistoryLimit)
	}
	if cfg.Matrix.UserID != "@reader:localhost" {
		t.Errorf("user_id = %q", cfg.Matrix.UserID)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "backscroll.toml", "environment = 'production'")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for .toml config")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Run("staging section applies", func(t *testing.T) {
		path := writeConfig(t, "backscroll.yaml", minimalYAML+`
environment: staging
staging:
  matrix:
    history_limit: 5
    join_channels: true
  vault:
    compression: lz4
    store: sqlite
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() failed: %v", err)
		}
		if cfg.Matrix.HistoryLimit != 5 {
			t.Errorf("history_limit = %d, want 5", cfg.Matrix.HistoryLimit)
		}
		if !cfg.Matrix.JoinChannels {
			t.Error("join_channels should be true from the staging section")
		}
		if cfg.Vault.Compression != "lz4" {
			t.Errorf("compression = %q, want lz4", cfg.Vault.Compression)
		}
		if cfg.Vault.Store != StoreSQLite {
			t.Errorf("store = %q, want sqlite", cfg.Vault.Store)
		}
	})

	t.Run("other environment sections ignored", func(t *testing.T) {
		path := writeConfig(t, "backscroll.yaml", minimalYAML+`
environment: development
production:
  matrix:
    history_limit: 5
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() failed: %v", err)
		}
		if cfg.Matrix.HistoryLimit != DefaultHistoryLimit {
			t.Errorf("history_limit = %d, want default", cfg.Matrix.HistoryLimit)
		}
	})

	t.Run("production disables key generation by default", func(t *testing.T) {
		path := writeConfig(t, "backscroll.yaml", minimalYAML+"environment: production\n")
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() failed: %v", err)
		}
		if cfg.Vault.GenerateKey {
			t.Error("generate_key should default to false in production")
		}
	})
}

func TestExpandVars(t *testing.T) {
	t.Setenv("BACKSCROLL_TEST_DIR", "/from/env")
	vars := map[string]string{"BACKSCROLL_STATE": "/state"}

	tests := []struct {
		input string
		want  string
	}{
		{"${BACKSCROLL_STATE}/vault.key", "/state/vault.key"},
		{"${BACKSCROLL_TEST_DIR}/x", "/from/env/x"},
		{"${BACKSCROLL_UNSET_VAR:-/fallback}/y", "/fallback/y"},
		{"/plain/path", "/plain/path"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Paths.State = "/state"
		cfg.Vault.KeyFile = "/state/vault.key"
		cfg.Matrix.HomeserverURL = "https://matrix.example.org"
		cfg.Matrix.UserID = "@reader:example.org"
		cfg.Matrix.Channels = []string{"#news:example.org"}
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config failed validation: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "invalid environment"},
		{"no listener", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"non-http homeserver", func(c *Config) { c.Matrix.HomeserverURL = "ftp://example.org" }, "matrix.homeserver_url"},
		{"bad user", func(c *Config) { c.Matrix.UserID = "reader" }, "matrix.user_id"},
		{"no channels", func(c *Config) { c.Matrix.Channels = nil }, "at least one channel"},
		{"bad channel", func(c *Config) { c.Matrix.Channels = []string{"news"} }, "matrix.channels[0]"},
		{"zero limit", func(c *Config) { c.Matrix.HistoryLimit = 0 }, "history_limit"},
		{"credential source without name", func(c *Config) { c.Vault.KeySource = KeySourceCredential }, "vault.key_credential"},
		{"unknown key source", func(c *Config) { c.Vault.KeySource = "kms" }, "vault.key_source"},
		{"unknown cipher", func(c *Config) { c.Vault.Cipher = "aes" }, "vault.cipher"},
		{"unknown compression", func(c *Config) { c.Vault.Compression = "gzip" }, "vault.compression"},
		{"unknown store", func(c *Config) { c.Vault.Store = "redis" }, "vault.store"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err, test.wantErr)
			}
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := valid()
		cfg.Matrix.UserID = ""
		cfg.Matrix.HistoryLimit = -1
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "matrix.user_id") || !strings.Contains(err.Error(), "history_limit") {
			t.Errorf("expected both problems reported, got %q", err)
		}
	})
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Paths.State = filepath.Join(root, "state")
	cfg.Vault.KeyFile = filepath.Join(root, "keys", "vault.key")
	cfg.Server.SocketPath = filepath.Join(root, "run", "backscroll.sock")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths() failed: %v", err)
	}
	for _, dir := range []string{"state", "keys", "run"} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil {
			t.Fatalf("stat %s: %v", dir, err)
		}
		if info.Mode().Perm() != 0700 {
			t.Errorf("%s mode = %o, want 0700", dir, info.Mode().Perm())
		}
	}
}
