// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/backscroll/lib/ref"
	"github.com/bureau-foundation/backscroll/lib/sealed"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// EnvVar names the environment variable Load reads the config path from.
const EnvVar = "BACKSCROLL_CONFIG"

// DefaultHistoryLimit is the number of most recent messages fetched per
// channel when matrix.history_limit is unset.
const DefaultHistoryLimit = 50

// Key sources for the vault encryption key.
const (
	KeySourceFile       = "file"
	KeySourceCredential = "credential"
)

// Backends for the sealed session record.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config is the complete Backscroll configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths  PathsConfig  `yaml:"paths"`
	Server ServerConfig `yaml:"server"`
	Matrix MatrixConfig `yaml:"matrix"`
	Vault  VaultConfig  `yaml:"vault"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the fields that can differ per environment.
type Overrides struct {
	Paths  *PathsConfig     `yaml:"paths,omitempty"`
	Server *ServerConfig    `yaml:"server,omitempty"`
	Matrix *MatrixOverrides `yaml:"matrix,omitempty"`
	Vault  *VaultOverrides  `yaml:"vault,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// State holds the sealed session record, the transient plaintext
	// session file and, by default, the vault key file.
	State string `yaml:"state"`
}

// ServerConfig configures the HTTP listener of backscroll-service.
// Exactly one of ListenAddress and SocketPath is used; SocketPath wins
// when both are set.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
	SocketPath    string `yaml:"socket_path"`
}

// MatrixConfig configures the account and the channels it reads.
type MatrixConfig struct {
	// HomeserverURL is the client-server API endpoint.
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the account, e.g. "@reader:example.org".
	UserID string `yaml:"user_id"`

	// PasswordCredential names the credential holding the account
	// password. The password is only needed when no valid session
	// exists.
	PasswordCredential string `yaml:"password_credential"`

	// Channels is the ordered list of room aliases or room IDs.
	Channels []string `yaml:"channels"`

	// HistoryLimit is the number of most recent messages per channel.
	HistoryLimit int `yaml:"history_limit"`

	// JoinChannels joins each resolved room before reading it, for
	// public rooms the account is not yet a member of.
	JoinChannels bool `yaml:"join_channels"`
}

// MatrixOverrides is the per-environment subset of MatrixConfig.
type MatrixOverrides struct {
	HomeserverURL string   `yaml:"homeserver_url,omitempty"`
	Channels      []string `yaml:"channels,omitempty"`
	HistoryLimit  int      `yaml:"history_limit,omitempty"`
	JoinChannels  *bool    `yaml:"join_channels,omitempty"`
}

// VaultConfig configures session encryption at rest.
type VaultConfig struct {
	// KeySource is "file" (KeyFile) or "credential" (KeyCredential).
	KeySource string `yaml:"key_source"`

	KeyFile       string `yaml:"key_file"`
	KeyCredential string `yaml:"key_credential"`

	// Cipher selects the key kind generated when the key file is
	// absent. Existing keys are recognized by their format.
	Cipher string `yaml:"cipher"`

	// Compression is "zstd", "lz4" or "none".
	Compression string `yaml:"compression"`

	// GenerateKey creates KeyFile on first start when it is missing.
	GenerateKey bool `yaml:"generate_key"`

	// Store is "file" (a single ciphertext file) or "sqlite" (a row
	// in SessionDatabasePath).
	Store string `yaml:"store"`
}

// VaultOverrides is the per-environment subset of VaultConfig.
type VaultOverrides struct {
	KeySource     string `yaml:"key_source,omitempty"`
	KeyFile       string `yaml:"key_file,omitempty"`
	KeyCredential string `yaml:"key_credential,omitempty"`
	Compression   string `yaml:"compression,omitempty"`
	GenerateKey   *bool  `yaml:"generate_key,omitempty"`
	Store         string `yaml:"store,omitempty"`
}

// Default returns the base configuration the file is merged into.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			State: filepath.Join(homeDir, ".local", "state", "backscroll"),
		},
		Server: ServerConfig{
			ListenAddress: "127.0.0.1:8080",
		},
		Matrix: MatrixConfig{
			PasswordCredential: "MATRIX_PASSWORD",
			HistoryLimit:       DefaultHistoryLimit,
		},
		Vault: VaultConfig{
			KeySource:   KeySourceFile,
			KeyFile:     "${BACKSCROLL_STATE}/vault.key",
			Cipher:      string(sealed.KindSymmetric),
			Compression: "zstd",
			GenerateKey: true,
			Store:       StoreFile,
		},
	}
}

// Load loads configuration from the file named by BACKSCROLL_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your backscroll.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

// decode merges data into c. JSON is a subset of YAML, so normalized
// JSONC decodes through the same yaml tags.
func (c *Config) decode(path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	default:
		return fmt.Errorf("unsupported config extension %q (want .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// A production host never mints its own key: the key is
		// provisioned alongside the record it decrypts.
		if overrides == nil {
			generate := false
			overrides = &Overrides{Vault: &VaultOverrides{GenerateKey: &generate}}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil && overrides.Paths.State != "" {
		c.Paths.State = overrides.Paths.State
	}

	if overrides.Server != nil {
		if overrides.Server.ListenAddress != "" {
			c.Server.ListenAddress = overrides.Server.ListenAddress
		}
		if overrides.Server.SocketPath != "" {
			c.Server.SocketPath = overrides.Server.SocketPath
		}
	}

	if overrides.Matrix != nil {
		if overrides.Matrix.HomeserverURL != "" {
			c.Matrix.HomeserverURL = overrides.Matrix.HomeserverURL
		}
		if len(overrides.Matrix.Channels) > 0 {
			c.Matrix.Channels = overrides.Matrix.Channels
		}
		if overrides.Matrix.HistoryLimit != 0 {
			c.Matrix.HistoryLimit = overrides.Matrix.HistoryLimit
		}
		if overrides.Matrix.JoinChannels != nil {
			c.Matrix.JoinChannels = *overrides.Matrix.JoinChannels
		}
	}

	if overrides.Vault != nil {
		if overrides.Vault.KeySource != "" {
			c.Vault.KeySource = overrides.Vault.KeySource
		}
		if overrides.Vault.KeyFile != "" {
			c.Vault.KeyFile = overrides.Vault.KeyFile
		}
		if overrides.Vault.KeyCredential != "" {
			c.Vault.KeyCredential = overrides.Vault.KeyCredential
		}
		if overrides.Vault.Compression != "" {
			c.Vault.Compression = overrides.Vault.Compression
		}
		if overrides.Vault.GenerateKey != nil {
			c.Vault.GenerateKey = *overrides.Vault.GenerateKey
		}
		if overrides.Vault.Store != "" {
			c.Vault.Store = overrides.Vault.Store
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
// BACKSCROLL_STATE refers to the (already expanded) state directory.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["BACKSCROLL_STATE"] = c.Paths.State

	c.Server.SocketPath = expandVars(c.Server.SocketPath, vars)
	c.Vault.KeyFile = expandVars(c.Vault.KeyFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.State == "" {
		errs = append(errs, errors.New("paths.state is required"))
	}

	if c.Server.ListenAddress == "" && c.Server.SocketPath == "" {
		errs = append(errs, errors.New("server.listen_address or server.socket_path is required"))
	}

	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, errors.New("matrix.homeserver_url is required"))
	} else if parsed, err := url.Parse(c.Matrix.HomeserverURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url %q must be an http or https URL", c.Matrix.HomeserverURL))
	}

	if _, err := ref.ParseUserID(c.Matrix.UserID); err != nil {
		errs = append(errs, fmt.Errorf("matrix.user_id: %w", err))
	}

	if len(c.Matrix.Channels) == 0 {
		errs = append(errs, errors.New("matrix.channels must list at least one channel"))
	}
	for index, channel := range c.Matrix.Channels {
		if _, err := ref.ParseChannel(channel); err != nil {
			errs = append(errs, fmt.Errorf("matrix.channels[%d]: %w", index, err))
		}
	}

	if c.Matrix.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("matrix.history_limit must be positive, got %d", c.Matrix.HistoryLimit))
	}

	switch c.Vault.KeySource {
	case KeySourceFile:
		if c.Vault.KeyFile == "" {
			errs = append(errs, errors.New("vault.key_file is required when vault.key_source is file"))
		}
	case KeySourceCredential:
		if c.Vault.KeyCredential == "" {
			errs = append(errs, errors.New("vault.key_credential is required when vault.key_source is credential"))
		}
	default:
		errs = append(errs, fmt.Errorf("vault.key_source must be %q or %q, got %q", KeySourceFile, KeySourceCredential, c.Vault.KeySource))
	}

	if _, err := sealed.ParseKind(c.Vault.Cipher); err != nil {
		errs = append(errs, fmt.Errorf("vault.cipher: %w", err))
	}

	compressions := []string{"zstd", "lz4", "none"}
	if !slices.Contains(compressions, c.Vault.Compression) {
		errs = append(errs, fmt.Errorf("vault.compression must be one of: %v", compressions))
	}

	if c.Vault.Store != StoreFile && c.Vault.Store != StoreSQLite {
		errs = append(errs, fmt.Errorf("vault.store must be %q or %q, got %q", StoreFile, StoreSQLite, c.Vault.Store))
	}

	return errors.Join(errs...)
}

// SessionRecordPath is where the sealed session record lives.
func (c *Config) SessionRecordPath() string {
	return filepath.Join(c.Paths.State, "session.sealed")
}

// SessionDatabasePath is the SQLite database used when vault.store is
// sqlite.
func (c *Config) SessionDatabasePath() string {
	return filepath.Join(c.Paths.State, "session.db")
}

// PlaintextSessionPath is the transient location of the unsealed
// session. It exists only for the duration of a run.
func (c *Config) PlaintextSessionPath() string {
	return filepath.Join(c.Paths.State, "session.plain")
}

// EnsurePaths creates the state directory and the parents of the key
// file and socket. Directories are private to the service user.
func (c *Config) EnsurePaths() error {
	paths := []string{c.Paths.State}
	if c.Vault.KeySource == KeySourceFile && c.Vault.KeyFile != "" {
		paths = append(paths, filepath.Dir(c.Vault.KeyFile))
	}
	if c.Server.SocketPath != "" {
		paths = append(paths, filepath.Dir(c.Server.SocketPath))
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
