// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/res"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/anchors"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigFile names the configuration file when no path is given.
	EnvConfigFile = "KEYBOX_CHECKER_CONFIG_FILE"
	// EnvResources overrides Resources.Dir.
	EnvResources = "KEYBOX_CHECKER_RESOURCES"
)

// format represents supported configuration file formats.
type format int

const (
	// formatJSON represents JSON configuration format (.json)
	formatJSON format = iota
	// formatYAML represents YAML configuration format (.yaml, .yml)
	formatYAML
)

// Config is the keybox checker configuration shared by the CLI, the HTTP API
// and the MCP server.
//
// It can be loaded from a JSON or YAML file named by the caller or by the
// KEYBOX_CHECKER_CONFIG_FILE environment variable, with defaults applied for
// any missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Resources: where trust anchors and the revocation snapshot live
	Resources struct {
		// Dir: resource directory; empty means the resources compiled into the binary
		Dir string `json:"dir" yaml:"dir"`
		// Anchors: anchor files relative to Dir; an empty entry leaves the anchor unconfigured
		Anchors anchors.Paths `json:"anchors" yaml:"anchors"`
		// Snapshot: revocation snapshot relative to Dir
		Snapshot string `json:"snapshot" yaml:"snapshot"`
	} `json:"resources" yaml:"resources"`

	// Revocation: live status list settings
	Revocation struct {
		URL                 string `json:"url" yaml:"url"`
		TimeoutSeconds      int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
		MaxSnapshotAgeHours int    `json:"maxSnapshotAgeHours" yaml:"maxSnapshotAgeHours"`
		UserAgent           string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
		// Offline: never contact the live source
		Offline bool `json:"offline" yaml:"offline"`
	} `json:"revocation" yaml:"revocation"`

	// Upload: admission policy applied by every front-end
	Upload keybox.Limits `json:"upload" yaml:"upload"`

	// Server: HTTP API settings
	Server struct {
		Addr                string  `json:"addr" yaml:"addr"`
		RequestsPerSecond   float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
		Burst               int     `json:"burst" yaml:"burst"`
		ReadTimeoutSeconds  int     `json:"readTimeoutSeconds" yaml:"readTimeoutSeconds"`
		WriteTimeoutSeconds int     `json:"writeTimeoutSeconds" yaml:"writeTimeoutSeconds"`
	} `json:"server" yaml:"server"`

	// Validation: engine options
	Validation struct {
		RequirePrivateKey bool `json:"requirePrivateKey" yaml:"requirePrivateKey"`
	} `json:"validation" yaml:"validation"`

	// Log: structured logger settings
	Log struct {
		// Format: "json" or "text"
		Format string `json:"format" yaml:"format"`
		Level  string `json:"level" yaml:"level"`
	} `json:"log" yaml:"log"`
}

// Default returns the built-in configuration.
//
// The Google, AOSP EC and AOSP RSA roots ship with the binary. Samsung does
// not publish the Knox key in a redistributable form, so the Knox path is
// empty until resources.anchors.knox names a file in the resource directory.
func Default() *Config {
	c := &Config{}

	c.Resources.Anchors = anchors.DefaultPaths()
	c.Resources.Anchors.Knox = ""
	c.Resources.Snapshot = "json/status.json"

	c.Revocation.URL = revocation.DefaultURL
	c.Revocation.TimeoutSeconds = 10

	c.Upload = keybox.DefaultLimits()

	c.Server.Addr = ":8080"
	c.Server.RequestsPerSecond = 5
	c.Server.Burst = 10
	c.Server.ReadTimeoutSeconds = 15
	c.Server.WriteTimeoutSeconds = 30

	c.Log.Format = "json"
	c.Log.Level = "info"

	return c
}

// detectFormat determines the configuration file format based on file extension.
// It uses case-insensitive extension matching for cross-platform compatibility.
func detectFormat(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

// unmarshal decodes data into config according to f.
func unmarshal(data []byte, config *Config, f format) error {
	switch f {
	case formatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// Load loads the configuration from a JSON or YAML file or applies defaults.
//
// Parameters:
//   - path: Path to the configuration file (optional, can be empty)
//     Supported formats: .json, .yaml, .yml
//
// Returns:
//   - *Config: the configuration with defaults applied
//   - error: if the configuration file cannot be read or parsed
//
// Configuration Priority:
//  1. Default values are set
//  2. KEYBOX_CHECKER_CONFIG_FILE is checked if path is empty
//  3. Config file values override defaults
//  4. KEYBOX_CHECKER_RESOURCES overrides Resources.Dir
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshal(data, config, detectFormat(path)); err != nil {
			return nil, err
		}
	}

	if dir := os.Getenv(EnvResources); dir != "" {
		config.Resources.Dir = dir
	}

	config.normalize()
	return config, nil
}

// normalize replaces invalid values with defaults.
func (c *Config) normalize() {
	d := Default()

	if c.Revocation.URL == "" {
		c.Revocation.URL = d.Revocation.URL
	}
	if c.Revocation.TimeoutSeconds <= 0 {
		c.Revocation.TimeoutSeconds = d.Revocation.TimeoutSeconds
	}
	if c.Revocation.MaxSnapshotAgeHours < 0 {
		c.Revocation.MaxSnapshotAgeHours = 0
	}
	if c.Resources.Snapshot == "" {
		c.Resources.Snapshot = d.Resources.Snapshot
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = d.Upload.MaxBytes
	}
	if len(c.Upload.AllowedMIMETypes) == 0 {
		c.Upload.AllowedMIMETypes = d.Upload.AllowedMIMETypes
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.RequestsPerSecond <= 0 {
		c.Server.RequestsPerSecond = d.Server.RequestsPerSecond
	}
	if c.Server.Burst <= 0 {
		c.Server.Burst = d.Server.Burst
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = d.Server.ReadTimeoutSeconds
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = d.Server.WriteTimeoutSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// FS returns the resource filesystem: the embedded resources when Dir is
// empty, the directory otherwise.
func (c *Config) FS() fs.FS {
	if c.Resources.Dir == "" {
		return res.FS
	}
	return os.DirFS(c.Resources.Dir)
}

// RevocationTimeout returns the live fetch timeout.
func (c *Config) RevocationTimeout() time.Duration {
	return time.Duration(c.Revocation.TimeoutSeconds) * time.Second
}

// MaxSnapshotAge returns the staleness limit; zero means unbounded.
func (c *Config) MaxSnapshotAge() time.Duration {
	return time.Duration(c.Revocation.MaxSnapshotAgeHours) * time.Hour
}

// ReadTimeout returns the HTTP server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// Template returns the example configuration shipped with the binary.
func Template() ([]byte, error) {
	return fs.ReadFile(res.FS, "config.example.yaml")
}
